package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Forms
// =============================================================================

// QuestionForm is submitted when creating or modifying a question.
type QuestionForm struct {
	Subject string `form:"subject" label:"Subject" validate:"notblank,max=200"`
	Content string `form:"content" label:"Content" validate:"notblank"`
}

// AnswerForm is submitted when creating or modifying an answer.
type AnswerForm struct {
	Content string `form:"content" label:"Content" validate:"notblank"`
}

// UserCreateForm is submitted on signup.
type UserCreateForm struct {
	Username  string `form:"username" label:"Username" validate:"notblank,min=3,max=25"`
	Password1 string `form:"password1" label:"Password" validate:"required,eqfield=Password2"`
	Password2 string `form:"password2" label:"Password confirmation" validate:"required"`
	Email     string `form:"email" label:"Email" validate:"required,email"`
}

// UserLoginForm is submitted on login.
type UserLoginForm struct {
	Username string `form:"username" label:"Username" validate:"notblank,min=3,max=25"`
	Password string `form:"password" label:"Password" validate:"required"`
}

// =============================================================================
// Field Errors
// =============================================================================

// FieldError is a single failed rule, keyed by the form field name.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors lists failed rules in the order the fields are declared.
type FieldErrors []FieldError

// Any reports whether validation failed.
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// Get returns the message for field, or "" when the field is valid.
func (e FieldErrors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// =============================================================================
// Validator
// =============================================================================

// formValidate is the validator instance for forms.
// Initialized in init() with custom validators.
var formValidate *validator.Validate

func init() {
	formValidate = validator.New(validator.WithRequiredStructEnabled())

	// Report form field names instead of Go struct field names.
	formValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = formValidate.RegisterValidation("notblank", validateNotBlank)
}

// validateNotBlank rejects empty and whitespace-only strings.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validate checks a form struct and returns its field errors.
// A nil result means the form is valid.
func Validate(form any) FieldErrors {
	err := formValidate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: a programming mistake, not user input.
		panic(fmt.Sprintf("validation: %v", err))
	}

	labels := labelsOf(form)
	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: message(labels[fe.StructField()], fe),
		})
	}
	return out
}

func labelsOf(form any) map[string]string {
	t := reflect.TypeOf(form)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	labels := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		label := f.Tag.Get("label")
		if label == "" {
			label = f.Name
		}
		labels[f.Name] = label
	}
	return labels
}

func message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "email":
		return label + " must be a valid email address."
	case "eqfield":
		return "Passwords do not match."
	default:
		return label + " is invalid."
	}
}
