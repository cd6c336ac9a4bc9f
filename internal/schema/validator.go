package schema

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks v against its `validate` struct tags and reports the first
// failing field as a *Violation.
func Validate(shape string, v any) error {
	if err := validate.Struct(v); err != nil {
		return toViolation(shape, err)
	}
	return nil
}

// ValidateVar checks a single value against a validator tag expression.
func ValidateVar(shape, field string, v any, tag string) error {
	if err := validate.Var(v, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return violationf(shape, field, verrs[0].Tag(), v)
		}
		return violationf(shape, field, tag, v)
	}
	return nil
}

func toViolation(shape string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return violationf(shape, fe.Field(), fe.Tag(), fe.Value())
	}
	return violationf(shape, "", err.Error(), nil)
}
