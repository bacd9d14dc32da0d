package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator builds the shared validator. Field names in error output come
// from json tags, so clients see the keys they actually sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks a request DTO against its validate struct tags. It returns
// a *ValidationError when fields fail, so handlers can render per-field
// messages in the response envelope.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		return &ValidationError{fieldErrs: fieldErrs}
	}
	return err
}

// ValidationError carries the individual field failures of one request.
type ValidationError struct {
	fieldErrs validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.fieldErrs))
	for _, fe := range e.fieldErrs {
		parts = append(parts, fmt.Sprintf("field '%s' %s", fe.Field(), describe(fe)))
	}
	return strings.Join(parts, "; ")
}

// Fields maps each failing field name to a client-facing message.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.fieldErrs))
	for _, fe := range e.fieldErrs {
		fields[fe.Field()] = describe(fe)
	}
	return fields
}

// describe turns a tag failure into a message a cashier-facing client can
// show directly.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
