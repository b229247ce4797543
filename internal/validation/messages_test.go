package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type loginForm struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	FirstName       string `validate:"required"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

func TestFieldErrors(t *testing.T) {
	v := validator.New()

	err := v.Struct(loginForm{Password: "short", ConfirmPassword: "other"})
	got := FieldErrors(err)

	assert.Equal(t, map[string]string{
		"email":           "Email is required",
		"password":        "Password must be at least 8 characters",
		"firstName":       "First name is required",
		"confirmPassword": "Confirm password must match password",
	}, got)

	err = v.Struct(loginForm{Email: "nope", Password: "longenough", FirstName: "A", ConfirmPassword: "longenough"})
	assert.Equal(t, map[string]string{"email": "Please enter a valid email"}, FieldErrors(err))
	assert.Equal(t, "Please enter a valid email", Summary(err))
}

func TestFieldErrorsNonValidation(t *testing.T) {
	assert.Empty(t, FieldErrors(nil))
	assert.Equal(t, map[string]string{"": "Invalid request"}, FieldErrors(errors.New("EOF")))
	assert.Equal(t, "Invalid request", Summary(errors.New("EOF")))
}
