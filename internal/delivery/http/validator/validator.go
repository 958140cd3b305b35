// Package validator adapts go-playground/validator to Echo's Validator interface.
package validator

import (
	domainerrors "passport/internal/domain/errors"

	playgroundvalidator "github.com/go-playground/validator/v10"
)

// RequestValidator validates bound request structs against their validate tags.
type RequestValidator struct {
	validate *playgroundvalidator.Validate
}

// New creates a RequestValidator for the Echo server.
func New() *RequestValidator {
	return &RequestValidator{
		validate: playgroundvalidator.New(playgroundvalidator.WithRequiredStructEnabled()),
	}
}

// Validate implements echo.Validator. Failures surface as the shared
// validation error so the error middleware renders them uniformly.
func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
