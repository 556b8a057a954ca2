package validators

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

var validate = newValidator()

// Fields report their failures under the name in their errcode tag, which is
// the business error code the caller receives.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if code := f.Tag.Get("errcode"); code != "" {
			return code
		}
		return f.Name
	})
	return v
}

// Struct validates s and turns the first failing field into a validation
// error carrying that field's code.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return httperr.Validation(verrs[0].Field())
	}
	return httperr.Validation("invalid_input")
}
