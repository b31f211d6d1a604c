package dxapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/five82/dxportal/internal/datacache"
)

// ErrUnauthorized marks a 401 on an authorized call. It usually means the
// account was revoked or deleted.
var ErrUnauthorized = datacache.ErrUnauthorized

const genericFetchMessage = "could not fetch data"

// APIError is a non-2xx response other than an authorized 401.
type APIError struct {
	Method   string
	Endpoint string
	Status   int
	// Body is the JSON error payload, nil when the body was not JSON.
	Body    json.RawMessage
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Endpoint, e.Status, e.Message)
}

func newAPIError(method, endpoint string, status int, raw []byte) *APIError {
	apiErr := &APIError{
		Method:   method,
		Endpoint: endpoint,
		Status:   status,
		Message:  genericFetchMessage,
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return apiErr
	}
	apiErr.Body = json.RawMessage(trimmed)

	var fields map[string]any
	if err := json.Unmarshal(apiErr.Body, &fields); err == nil {
		for _, name := range []string{"message", "Message", "title", "error", "detail"} {
			if s, ok := fields[name].(string); ok && strings.TrimSpace(s) != "" {
				apiErr.Message = s
				return apiErr
			}
		}
		return apiErr
	}
	var s string
	if err := json.Unmarshal(apiErr.Body, &s); err == nil && strings.TrimSpace(s) != "" {
		apiErr.Message = s
	}
	return apiErr
}

// IsUnauthorized reports whether err is, or wraps, ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// FieldError names one rejected input field.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

// ValidationError reports input rejected before any request was made.
type ValidationError struct {
	Operation string
	Fields    []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Param != "" {
			parts = append(parts, fmt.Sprintf("%s (%s=%s)", f.Field, f.Rule, f.Param))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return fmt.Sprintf("%s: invalid input: %s", e.Operation, strings.Join(parts, ", "))
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func (c *Client) check(operation string, input any) error {
	err := c.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%s: validate: %w", operation, err)
	}
	out := &ValidationError{Operation: operation}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}
