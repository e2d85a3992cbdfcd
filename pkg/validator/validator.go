package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates request structs using `validate` tags
type Validator interface {
	Validate(interface{}) error
}

type structValidator struct {
	v *validator.Validate
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func New() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// reference months travel as YYYY-MM strings
	v.RegisterValidation("refmonth", func(fl validator.FieldLevel) bool {
		return monthPattern.MatchString(fl.Field().String())
	})

	return &structValidator{v: v}
}

func (sv *structValidator) Validate(obj interface{}) error {
	if err := sv.v.Struct(obj); err != nil {
		var errs validator.ValidationErrors
		if ok := isValidationErrors(err, &errs); ok {
			messages := make([]string, 0, len(errs))
			for _, fe := range errs {
				messages = append(messages, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
		}
		return err
	}
	return nil
}

func isValidationErrors(err error, target *validator.ValidationErrors) bool {
	if errs, ok := err.(validator.ValidationErrors); ok {
		*target = errs
		return true
	}
	return false
}
