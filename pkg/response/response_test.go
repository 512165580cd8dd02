package response

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestSuccess(t *testing.T) {
	got := Success("Successfully deleted shortened URL for 'https://example.com'")

	assert.Equal(t, Response{
		Status:  StatusSuccess,
		Message: "Successfully deleted shortened URL for 'https://example.com'",
	}, got)
}

func TestError(t *testing.T) {
	got := Error("URL 'http://localhost/abcde' doesn't exist")

	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "URL 'http://localhost/abcde' doesn't exist", got.Message)
	assert.Empty(t, got.Errors)
}

func TestFieldErrors(t *testing.T) {
	type req struct {
		Name string `json:"name" validate:"required"`
		URL  string `json:"target_url" validate:"required,url"`
	}

	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	tests := []struct {
		name string
		req  req
		want []FieldError
	}{
		{
			name: "not validation error",
			req: req{
				Name: "name",
				URL:  "https://example.com",
			},
		},
		{
			name: "one error",
			req: req{
				Name: "",
				URL:  "https://example.com",
			},
			want: []FieldError{
				{
					Field:   "name",
					Value:   "",
					Message: "This field is required",
				},
			},
		},
		{
			name: "two errors",
			req: req{
				Name: "",
				URL:  "not url",
			},
			want: []FieldError{
				{
					Field:   "name",
					Value:   "",
					Message: "This field is required",
				},
				{
					Field:   "target_url",
					Value:   "not url",
					Message: "Your provided URL is not valid",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.req)
			got := FieldErrors(err)

			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("wrapped validation error", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", validate.Struct(req{Name: "name", URL: "not url"}))

		got := FieldErrors(err)

		assert.Len(t, got, 1)
		assert.Equal(t, "target_url", got[0].Field)
	})
}

func TestValidation(t *testing.T) {
	validate := validator.New()
	err := validate.Var("", "required")

	got := Validation(err)

	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, InvalidURL.Message, got.Message)
	assert.Len(t, got.Errors, 1)
	assert.Empty(t, InvalidURL.Errors)
}
