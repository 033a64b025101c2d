package application

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// inputValidator wraps validator/v10 and reports failures by json field name.
type inputValidator struct {
	validate *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return &inputValidator{validate: v}
}

// Struct validates s and converts failures to a *ValidationError. It returns
// nil when s is valid.
func (v *inputValidator) Struct(s any) *ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return translateValidationErrors(verrs)
	}
	return fieldError("__all__", err.Error())
}

func translateValidationErrors(verrs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{}
	for _, fe := range verrs {
		out.add(fe.Field(), validationMessage(fe))
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return "Enter a valid value."
	}
}

const (
	msgRequired        = "This field is required."
	msgInvalidChoice   = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidDateTime = "Enter a valid date/time."
	msgInvalidDate     = "Enter a valid date."
	msgEndBeforeStart  = "End time must be after start time."
)
