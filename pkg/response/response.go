// Package response defines the JSON envelope returned by the HTTP API for
// confirmations and errors.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

type Response struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

var (
	EmptyRequestBody = Response{
		Status:  StatusError,
		Message: "Request body is empty",
	}

	InvalidRequestBody = Response{
		Status:  StatusError,
		Message: "Request body is not valid JSON",
	}

	InvalidURL = Response{
		Status:  StatusError,
		Message: "Your provided URL is not valid",
	}

	StoreUnavailable = Response{
		Status:  StatusError,
		Message: "Storage is temporarily unavailable, please try again later",
	}

	ServerError = Response{
		Status:  StatusError,
		Message: "An internal server error occurred",
	}
)

func Success(msg string) Response {
	return Response{
		Status:  StatusSuccess,
		Message: msg,
	}
}

func Error(msg string) Response {
	return Response{
		Status:  StatusError,
		Message: msg,
	}
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "url", "absurl":
		return "Your provided URL is not valid"
	default:
		return "Invalid value"
	}
}

// FieldErrors flattens validator errors found anywhere in err's chain.
// It returns nil when err carries none.
func FieldErrors(err error) []FieldError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	fieldErrs := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		fieldErrs = append(fieldErrs, FieldError{
			Field:   e.Field(),
			Value:   e.Value(),
			Message: messageForTag(e.Tag()),
		})
	}

	return fieldErrs
}

// Validation is the 400 envelope for a rejected request.
func Validation(err error) Response {
	resp := InvalidURL
	resp.Errors = FieldErrors(err)
	return resp
}
