package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every *Error returned from Struct.
var ErrValidation = errors.New("validation failed")

// timeOfDayLayout is the wall-clock format used by schedules.
const timeOfDayLayout = "15:04:05"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error collects every field that failed a Struct call.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *Error) Unwrap() error {
	return ErrValidation
}

// Get returns the singleton validator instance.
//
// Field names in errors come from json tags so messages match the wire names
// (start_time, not StartTime). The custom "timeofday" tag accepts HH:mm:ss.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		// Registration only fails on an empty tag or nil func.
		_ = validate.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool { //nolint:errcheck // static registration
			_, err := time.Parse(timeOfDayLayout, fl.Field().String())
			return err == nil && len(fl.Field().String()) == len(timeOfDayLayout)
		})
	})

	return validate
}

// Struct validates s and returns nil or an *Error.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	out := &Error{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{
			Field:   fieldPath(fe),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return out
}

var messageTemplates = map[string]string{
	"required":  "%s is required",
	"timeofday": "%s must be a time of day in HH:mm:ss form",
}

var messageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"max":   "%s must be at most %s",
	"min":   "%s must be at least %s",
}

// fieldPath returns the namespace without the root struct name,
// e.g. "schedule[0].start_time".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// translate converts a validator.FieldError to a human-readable message.
func translate(fe validator.FieldError) string {
	field := fieldPath(fe)

	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
