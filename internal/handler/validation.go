package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldErrors flattens validator failures into field -> message, the shape the
// 400 responses carry.
func fieldErrors(err error) map[string]string {
	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["body"] = err.Error()
		return fields
	}

	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = "This field is required."
		case "email":
			fields[name] = "Enter a valid email address."
		case "min":
			fields[name] = "Value is too short."
		case "max":
			fields[name] = "Value is too long."
		case "alphanum":
			fields[name] = "Only letters and digits are allowed."
		default:
			fields[name] = "Invalid value."
		}
	}

	return fields
}
