package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Struct validates a request struct and returns field-level messages keyed
// by the lowercased field path ("items[0].quantity"). Nil means valid.
func Struct(req interface{}) map[string][]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string][]string{"_": {err.Error()}}
	}

	fields := make(map[string][]string)
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		fields[field] = append(fields[field], messageFor(fe))
	}
	return fields
}

// fieldPath strips the struct name and lowercases the remaining path
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.ToLower(namespace)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must have at least " + fe.Param() + " items or characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
