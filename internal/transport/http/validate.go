package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nadzzz/polyglot/internal/apperr"
)

func newValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names for validation errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct validates s and converts failures to an invalid-input error.
func (t *Transport) validateStruct(s any) error {
	err := t.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperr.Wrap(apperr.KindInvalidInput, err, "invalid request")
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fieldErrorMessage(fe))
	}
	return apperr.Wrap(apperr.KindInvalidInput, err, strings.Join(msgs, "; "))
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "bcp47_language_tag":
		return fmt.Sprintf("%s must be a language code such as \"fr\"", fe.Field())
	default:
		return fmt.Sprintf("%s failed validation for '%s'", fe.Field(), fe.Tag())
	}
}
