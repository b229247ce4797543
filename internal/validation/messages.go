// Package validation turns validator/v10 errors into field messages for
// JSON error bodies and re-rendered forms.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a lower-camel field name to its first failing rule's
// message. Errors that are not validation errors map to the "" key.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			out[""] = "Invalid request"
		}
		return out
	}
	for _, fe := range verrs {
		key := lowerFirst(fe.Field())
		if _, seen := out[key]; !seen {
			out[key] = Message(fe)
		}
	}
	return out
}

// Summary returns the first message of err in field declaration order.
func Summary(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return Message(verrs[0])
	}
	return "Invalid request"
}

func Message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", label, strings.ToLower(humanize(fe.Param())))
	case "e164":
		return "Please enter a valid phone number"
	default:
		return label + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// humanize turns FirstName into "First name".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
