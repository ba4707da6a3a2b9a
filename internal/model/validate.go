package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"FakedIn-backend/internal/apperror"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func invalidf(format string, args ...any) error {
	return apperror.Invalidf(format, args...)
}

// validateStruct runs the field level tags and turns the first failure into
// an InvalidInput error naming the field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Invalid(err.Error())
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return invalidf("%s is required", field)
	case "min":
		return invalidf("%s needs at least %s entries", field, fe.Param())
	case "max":
		return invalidf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return invalidf("%s must be at least %s", field, fe.Param())
	case "lte":
		return invalidf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return invalidf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return invalidf("%s is not a valid email", field)
	}
	return apperror.Invalid(fmt.Sprintf("%s failed on %s", field, fe.Tag()))
}
