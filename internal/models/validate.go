package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldError describes one invalid field using its JSON name.
type FieldError struct {
	ObjectName string `json:"objectName"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// ValidationError collects every [FieldError] found on a model. It matches [shared.ErrValidation].
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return fmt.Sprintf("%v: %s", shared.ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return shared.ErrValidation }

// ValidateStruct runs the struct tag rules on v.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			ObjectName: strings.ToLower(reflect.TypeOf(v).Name()),
			Field:      fe.Field(),
			Message:    message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be null"
	case "max":
		return "size must be at most " + fe.Param()
	case "min":
		return "size must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
