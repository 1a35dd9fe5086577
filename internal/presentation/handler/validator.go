package handler

import "github.com/go-playground/validator/v10"

// RequestValidator adapts validator/v10 to echo.Validator. Field rules live
// as struct tags on the request types.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a new RequestValidator
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
