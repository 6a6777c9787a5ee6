package binding

import (
	"errors"
	"fmt"

	validatorV10 "github.com/go-playground/validator/v10"

	apperrors "github.com/leeforge/giftstudio/errors"
)

var validator *validatorV10.Validate

func init() {
	validator = validatorV10.New()
}

// Validate checks the `validate` tags of v. Failures come back as a
// validation AppError whose "fields" detail lists every FieldError.
func Validate(v any) error {
	err := validator.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validatorV10.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidation(err.Error()).WithInnerError(err)
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: getValidationMessage(fe),
		})
	}
	return apperrors.NewValidation(fmt.Sprintf("%s %s", fields[0].Field, fields[0].Message)).
		WithDetail("fields", fields).
		WithInnerError(err)
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func getValidationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "numeric":
		return "must be a valid number"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}
