// Package validation configures request validation for the portal models
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/growup/backend/internal/models"
)

// New returns a validator with the portal's enumerations registered as tags
func New() *validator.Validate {
	validate := validator.New()

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("classgrade", func(fl validator.FieldLevel) bool {
		return models.ClassGrade(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("subscriptiontype", func(fl validator.FieldLevel) bool {
		return models.SubscriptionType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("contenttype", func(fl validator.FieldLevel) bool {
		return models.ContentType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("adplacement", func(fl validator.FieldLevel) bool {
		return models.AdPlacement(fl.Field().String()).Valid()
	})

	return validate
}

// Struct validates s and converts field errors into a single ErrValidation
func Struct(validate *validator.Validate, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(messages, "; "))
}
