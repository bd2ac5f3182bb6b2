package utils

import (
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags on an input struct and reports failures
// as a field->tag map, or nil when the input is valid.
func ValidateStruct(input any) map[string]string {
	if err := validate.Struct(input); err != nil {
		return ProcessValidationErrors(err)
	}
	return nil
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

// Truncate caps s at max bytes, backing up to a rune boundary so the result
// stays valid UTF-8. Diagnostic messages stored on failed jobs go through this
// so a huge solver stack trace cannot blow up the job row.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
