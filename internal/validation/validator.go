package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	apierrors "sportsbook/internal/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report JSON names so messages match the wire payload.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct checks v against its `validate` tags and converts failures into
// *errors.ValidationError.
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &apierrors.ValidationError{Fields: []apierrors.FieldError{{Field: "payload", Rule: err.Error()}}}
	}

	ve := &apierrors.ValidationError{Fields: make([]apierrors.FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		ve.Fields = append(ve.Fields, apierrors.FieldError{Field: fe.Field(), Rule: rule})
	}
	return ve
}

// Duration checks a reservation length in whole hours.
func Duration(hours int) error {
	if hours < 1 || hours > 4 {
		return apierrors.NewValidationError("duration", "min=1,max=4")
	}
	return nil
}
