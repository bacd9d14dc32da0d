package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	_ http.Flusher  = (*statusRecorder)(nil)
	_ http.Hijacker = (*statusRecorder)(nil)
)

func TestStatusRecorder_DefaultsTo200(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("ok"))

	assert.Equal(t, http.StatusOK, rec.status)
	assert.Equal(t, 2, rec.bytes)
}

func TestStatusRecorder_FirstWriteHeaderWins(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusOK)

	assert.Equal(t, http.StatusNotFound, rec.status)
}

func TestStatusRecorder_AccumulatesBytes(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("hello "))
	_, _ = rec.Write([]byte("world"))

	assert.Equal(t, 11, rec.bytes)
}

type flushableWriter struct {
	http.ResponseWriter
	flushed bool
}

func (w *flushableWriter) Flush() { w.flushed = true }

func TestStatusRecorder_FlushForwards(t *testing.T) {
	under := &flushableWriter{ResponseWriter: httptest.NewRecorder()}
	newStatusRecorder(under).Flush()

	assert.True(t, under.flushed)
}

type bareWriter struct {
	header http.Header
}

func (w *bareWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}
func (w *bareWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *bareWriter) WriteHeader(int)             {}

func TestStatusRecorder_FlushNoOpWithoutFlusher(t *testing.T) {
	newStatusRecorder(&bareWriter{}).Flush()
}

type hijackableWriter struct {
	http.ResponseWriter
	hijacked bool
}

func (w *hijackableWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	w.hijacked = true
	return nil, nil, nil
}

func TestStatusRecorder_HijackForwards(t *testing.T) {
	under := &hijackableWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := newStatusRecorder(under).Hijack()

	assert.NoError(t, err)
	assert.True(t, under.hijacked)
}

func TestStatusRecorder_HijackErrorsWithoutHijacker(t *testing.T) {
	_, _, err := newStatusRecorder(&bareWriter{}).Hijack()
	assert.ErrorIs(t, err, http.ErrNotSupported)
}
