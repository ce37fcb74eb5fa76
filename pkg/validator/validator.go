package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/andressep95/session-auth/pkg/hash"
	"github.com/go-playground/validator/v10"
)

// passwordSymbols is the punctuation set accepted by the password rule.
const passwordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names instead of struct field names for error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	if err := v.RegisterValidation("password", validatePassword); err != nil {
		panic(fmt.Sprintf("validator: register password rule: %v", err))
	}
	if err := v.RegisterValidation("bcryptmax", validateBcryptLength); err != nil {
		panic(fmt.Sprintf("validator: register bcryptmax rule: %v", err))
	}

	return &Validator{
		validate: v,
	}
}

// Validate returns a *domain.ValidationError listing every failed field.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return formatValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// validatePassword requires at least one ASCII letter, one ASCII digit and
// one symbol. Length is enforced separately with min and bcryptmax.
func validatePassword(fl validator.FieldLevel) bool {
	var letter, digit, symbol bool
	for _, r := range fl.Field().String() {
		switch {
		case ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'):
			letter = true
		case '0' <= r && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return letter && digit && symbol
}

// validateBcryptLength counts bytes, not runes; bcrypt rejects anything
// longer than hash.MaxPasswordBytes.
func validateBcryptLength(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= hash.MaxPasswordBytes
}

func formatValidationErrors(errs validator.ValidationErrors) *domain.ValidationError {
	fields := make([]domain.FieldError, 0, len(errs))
	for _, err := range errs {
		var message string
		field := err.Field()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "bcryptmax":
			message = fmt.Sprintf("%s must be at most %d bytes", field, hash.MaxPasswordBytes)
		case "password":
			message = fmt.Sprintf("%s must contain at least one letter, one number and one special character", field)
		default:
			message = fmt.Sprintf("%s failed validation for %s", field, err.Tag())
		}
		fields = append(fields, domain.FieldError{Field: field, Message: message})
	}

	return &domain.ValidationError{Fields: fields}
}
