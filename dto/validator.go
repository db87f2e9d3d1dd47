package dto

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

func GetValidator() *validator.Validate {
	return validate
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func FormatValidationErrors(err error) []ValidationError {
	var out []ValidationError

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}

	for _, fieldErr := range validationErrors {
		out = append(out, ValidationError{
			Field:   fieldErr.Field(),
			Message: fieldErr.Tag(),
		})
	}

	return out
}
