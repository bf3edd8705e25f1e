// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Package validation provides struct validation using go-playground/validator
// v10, wrapping it behind a thread-safe singleton instance and translating
// its field errors into a flat, API-friendly shape.
//
// Example usage:
//
//	type QueryRequest struct {
//	    Query string `validate:"required,max=4096"`
//	    Step  string `validate:"omitempty"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes a single field that failed validation.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

func (e *FieldError) Field() string        { return e.field }
func (e *FieldError) Tag() string          { return e.tag }
func (e *FieldError) Param() string        { return e.param }
func (e *FieldError) Value() interface{}   { return e.value }
func (e *FieldError) Error() string        { return e.message }

// Error collects every field that failed validation on one struct.
type Error struct {
	fields []FieldError
}

func (ve *Error) Fields() []FieldError { return ve.fields }

func (ve *Error) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.fields))
	for i, fe := range ve.fields {
		messages[i] = fe.Error()
	}
	return strings.Join(messages, "; ")
}

// APIError is the flattened, transport-agnostic shape validation errors are
// converted to before reaching an HTTP handler.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts a validation.Error into the application's error
// response shape.
func (ve *Error) ToAPIError() *APIError {
	if len(ve.fields) == 0 {
		return &APIError{Code: "VALIDATION_ERROR", Message: "validation failed"}
	}
	if len(ve.fields) == 1 {
		fe := ve.fields[0]
		return &APIError{
			Code:    "VALIDATION_ERROR",
			Message: fe.message,
			Details: map[string]interface{}{"field": fe.field, "tag": fe.tag, "value": fe.value},
		}
	}
	fields := make([]map[string]interface{}, len(ve.fields))
	messages := make([]string, len(ve.fields))
	for i, fe := range ve.fields {
		fields[i] = map[string]interface{}{"field": fe.field, "tag": fe.tag, "message": fe.message}
		messages[i] = fmt.Sprintf("%s: %s", fe.field, fe.message)
	}
	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: strings.Join(messages, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the package-wide validator.Validate instance,
// initializing it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates s against its `validate` struct tags, returning
// nil on success.
func ValidateStruct(s interface{}) *Error {
	v := GetValidator()
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{fields: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: translate(fe),
		}
	}
	return &Error{fields: out}
}

var simpleTemplates = map[string]string{
	"required": "%s is required",
	"oneof":    "%s must be one of the allowed values",
}

var paramTemplates = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if template, ok := paramTemplates[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	if template, ok := simpleTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	return translateMinMax(fe, field, tag, param)
}

func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	isString := fe.Kind().String() == "string"
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
