// Package validate rejects input that cannot be analyzed: documents that are
// not text, malformed requests and unreachable batch inputs.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/clausewise/internal/model"
)

var structValidate *validator.Validate

func init() {
	structValidate = validator.New(validator.WithRequiredStructEnabled())
}

// Text checks that a document is text the analyzer accepts. Failures wrap
// model.ErrInvalidInput. Empty text is valid.
func Text(text string, maxBytes int) error {
	if maxBytes > 0 && len(text) > maxBytes {
		return model.InvalidInputError("document is %d bytes, limit is %d", len(text), maxBytes)
	}
	if !utf8.ValidString(text) {
		return model.InvalidInputError("document is not valid UTF-8")
	}
	if strings.IndexByte(text, 0) >= 0 {
		return model.InvalidInputError("document contains NUL bytes")
	}
	return nil
}

// Struct validates v against its `validate` tags. Failures wrap
// model.ErrInvalidInput and name each failing field.
func Struct(v interface{}) error {
	err := structValidate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.InvalidInputError("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return model.InvalidInputError("%s", strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_without":
		return fmt.Sprintf("%s is required when %s is empty", field, strings.ToLower(fe.Param()))
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", field, strings.ToLower(fe.Param()))
	case "url", "http_url":
		return field + " must be an absolute http(s) URL"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
