// Package validation checks HTTP request DTOs with struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/flashgen/question-service/internal/question"
)

// FieldError names the first JSON field that failed validation.
type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q failed %q validation", e.Field, e.Tag)
}

// Validator wraps a configured validator.Validate. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	registerCustomValidators(v)
	return &Validator{validate: v}
}

// Struct validates s and reports the first failure as a *FieldError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldError{Field: verrs[0].Field(), Tag: verrs[0].Tag()}
	}
	return err
}

func registerCustomValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("topic", validateTopic)
	_ = validate.RegisterValidation("difficulty", validateDifficulty)
	_ = validate.RegisterValidation("question_kind", validateKind)

	// report JSON names so clients see the field they sent
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateTopic(fl validator.FieldLevel) bool {
	_, err := question.ParseTopic(fl.Field().String())
	return err == nil
}

func validateDifficulty(fl validator.FieldLevel) bool {
	_, err := question.ParseDifficulty(fl.Field().String())
	return err == nil
}

func validateKind(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	_, err := question.ParseKind(fl.Field().String())
	return err == nil
}
