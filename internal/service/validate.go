package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tgienger/toman/internal/apperr"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

var errorMessages = map[string]string{
	"required": "The field '%s' is required.",
	"email":    "The field '%s' must be a valid email address.",
	"min":      "The field '%s' must be at least %s characters long.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"oneof":    "The field '%s' must be one of: %s.",
	"url":      "The field '%s' must be a valid URL.",
	"hexcolor": "The field '%s' must be a hex color such as #6B46C1.",
	"gtfield":  "The field '%s' must be after %s.",
}

func parseMessage(jsonTag string, e validator.FieldError) string {
	if msg, ok := errorMessages[e.Tag()]; ok {
		switch strings.Count(msg, "%s") {
		case 1:
			return fmt.Sprintf(msg, jsonTag)
		case 2:
			return fmt.Sprintf(msg, jsonTag, paramName(e))
		}
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", jsonTag, e.Tag())
}

// paramName renders the tag parameter, turning field references into
// their json names
func paramName(e validator.FieldError) string {
	if e.Tag() == "gtfield" {
		return snake(e.Param())
	}
	return e.Param()
}

// validateStruct returns json field names mapped to messages
func validateStruct(s any) map[string]string {
	fields := make(map[string]string)

	err := validate.Struct(s)
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		structType := reflect.TypeOf(s)
		if structType.Kind() == reflect.Pointer {
			structType = structType.Elem()
		}
		for _, e := range validationErrs {
			field, _ := structType.FieldByName(e.StructField())
			jsonTag := field.Tag.Get("json")
			if jsonTag == "" {
				jsonTag = snake(e.StructField())
			} else {
				jsonTag = strings.Split(jsonTag, ",")[0]
			}
			fields[jsonTag] = parseMessage(jsonTag, e)
		}
	}
	return fields
}

// invalid turns collected field messages into a validation error
func invalid(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return apperr.InvalidFields(fields)
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
