package validation

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// validReasons mirrors the cancellation reason enum stored in the database.
var validReasons = map[string]bool{
	"user_cancelled":   true,
	"payment_failed":   true,
	"system_cancelled": true,
	"owner_cancelled":  true,
	"other":            true,
}

// Validator returns the shared validator instance with custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("cancellation_reason", func(fl validator.FieldLevel) bool {
			return validReasons[fl.Field().String()]
		})
	})
	return validate
}

// ValidateStruct validates a struct and converts validator errors to ValidationError
func ValidateStruct(s interface{}) error {
	if err := Validator().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return NewValidationError(verrs)
		}
		return err
	}
	return nil
}
