package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params holds the page window extracted from a list request.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page with the default window size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: defaultPerPage}
}

// FromRequest reads page and per_page from the query string. Values that are
// missing, non-numeric, non-positive, or beyond the per-page cap fall back to
// the defaults rather than erroring; a catalog listing should never 400 over
// a bad page number.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := DefaultParams()

	if v := positiveInt(q.Get("page")); v > 0 {
		p.Page = v
	}
	if v := positiveInt(q.Get("per_page")); v > 0 && v <= maxPerPage {
		p.PerPage = v
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

func positiveInt(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}
