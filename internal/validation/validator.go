// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

// Package validation provides struct validation using go-playground/validator
// v10. It exposes a thread-safe singleton instance with a custom
// "stylecategory" rule for the fixed style taxonomy, plus error translation
// into readable field messages. The package imports no other internal
// packages so any layer can use it without cycles.
//
// Example usage:
//
//	type Request struct {
//	    UserID string `validate:"required"`
//	    Limit  int    `validate:"min=0,max=100"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    return fmt.Errorf("invalid request: %w", err)
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks every struct validation failure; callers branch with
// errors.Is.
var ErrValidation = errors.New("validation failed")

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// styleCategories mirrors the engine's fixed style taxonomy. Kept local so
// the rule works without importing the domain package.
var styleCategories = map[string]struct{}{
	"CASUAL":     {},
	"FORMAL":     {},
	"SPORTY":     {},
	"BOHEMIAN":   {},
	"VINTAGE":    {},
	"MINIMALIST": {},
	"STREETWEAR": {},
	"ELEGANT":    {},
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field name that failed validation.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the tag parameter (e.g. "100" for "max=100").
func (e *ValidationError) Param() string { return e.param }

// Value returns the value that failed validation.
func (e *ValidationError) Value() interface{} { return e.value }

// Error returns a human-readable message.
func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects all field failures from one struct.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual field errors.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error implements the error interface with a combined message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, len(ve.errors))
	for i, err := range ve.errors {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Unwrap marks every validation failure as an ErrValidation condition.
func (ve *RequestValidationError) Unwrap() error {
	return ErrValidation
}

// GetValidator returns the singleton validator instance. Thread-safe; the
// instance caches struct metadata across calls.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// stylecategory: value must be one of the fixed style taxonomy.
		//nolint:errcheck // registration only fails on empty tag or nil fn
		validate.RegisterValidation("stylecategory", func(fl validator.FieldLevel) bool {
			_, ok := styleCategories[fl.Field().String()]
			return ok
		})
	})

	return validate
}

// ValidateStruct validates a struct with the singleton validator. Returns
// nil on success, or *RequestValidationError (which unwraps to
// ErrValidation) on failure.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{{
				field:   "unknown",
				tag:     "unknown",
				message: err.Error(),
			}},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}

	return &RequestValidationError{errors: fieldErrors}
}

// errorMessageTemplates maps tags without parameters to message templates.
var errorMessageTemplates = map[string]string{
	"required":      "%s is required",
	"url":           "%s must be a valid URL",
	"stylecategory": "%s must be a known style category",
}

// errorMessageWithParam maps tags with parameters to message templates.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

// translateError converts a validator.FieldError to a readable message.
func translateError(fe validator.FieldError) string {
	field := fe.Field()

	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}

	return fmt.Sprintf("%s failed validation on %s", field, fe.Tag())
}
