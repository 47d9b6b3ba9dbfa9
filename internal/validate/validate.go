package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/authapi/internal/apperrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(useJSONTagNames)
}

// Return 'json' tag name instead of struct field name
// Look at documentation of 'RegisterTagNameFunc' for more details
func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Struct validates value using 'validate' struct tags
// Returns apperrors.ErrValidation with messages per field on failure
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("can't validate %T: %w", v, err)
	}

	return apperrors.NewValidation("Request validation failed", Messages(errs))
}

// Messages creates user-friendly error messages based on validation tag
func Messages(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "gte":
			message = fmt.Sprintf("Value must be greater than or equal to %s", fieldError.Param())
		case "lte":
			message = fmt.Sprintf("Value must be less than or equal to %s", fieldError.Param())
		case "email":
			message = "Value must be a valid email"
		case "number":
			message = "Value must be a number"
		case "oneof":
			message = fmt.Sprintf("Value must be one of: %s", fieldError.Param())
		default:
			message = "Invalid value"
		}

		fields[fieldError.Field()] = message
	}

	return fields
}
