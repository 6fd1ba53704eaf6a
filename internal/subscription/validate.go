package subscription

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/umbrella-agent/internal/common"
	"github.com/i474232898/umbrella-agent/internal/weather"
)

var validate = validator.New()

// Request is the raw registration input.
type Request struct {
	Email       string `json:"email" yaml:"email" validate:"required,email"`
	City        string `json:"city" yaml:"city" validate:"required"`
	CountryCode string `json:"country_code" yaml:"country_code" validate:"required,len=2,alpha"`
	NotifyAt    string `json:"notify_at,omitempty" yaml:"notify_at" validate:"omitempty,datetime=15:04"`
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed registration input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid subscription: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Normalize trims the input, lower-cases the email and upper-cases the country code.
func (r Request) Normalize() Request {
	return Request{
		Email:       common.NormalizeEmail(r.Email),
		City:        strings.TrimSpace(r.City),
		CountryCode: strings.ToUpper(strings.TrimSpace(r.CountryCode)),
		NotifyAt:    strings.TrimSpace(r.NotifyAt),
	}
}

// Validate normalizes and checks the request. defaultNotifyAt fills an empty NotifyAt.
func (r Request) Validate(defaultNotifyAt string) (Request, error) {
	n := r.Normalize()
	if err := validate.Struct(n); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return n, err
		}
		ve := &ValidationError{}
		for _, fe := range verrs {
			ve.Fields = append(ve.Fields, FieldError{Field: jsonName(fe.Field()), Message: describe(fe)})
		}
		return n, ve
	}
	if n.NotifyAt == "" {
		n.NotifyAt = defaultNotifyAt
	}
	return n, nil
}

// Location returns the weather location described by the request.
func (r Request) Location() weather.Location {
	return weather.Location{City: r.City, Country: r.CountryCode}
}

func jsonName(field string) string {
	switch field {
	case "Email":
		return "email"
	case "City":
		return "city"
	case "CountryCode":
		return "country_code"
	case "NotifyAt":
		return "notify_at"
	}
	return strings.ToLower(field)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alpha":
		return "must contain only letters"
	case "datetime":
		return "must be a time of day in HH:MM format"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
