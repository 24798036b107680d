package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/getmockd/interaptor/internal/matching"
)

// ErrInvalidRule is wrapped by every fixture validation error.
var ErrInvalidRule = errors.New("invalid rule")

// ValidationError describes one invalid field of a fixture.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrInvalidRule) hold.
func (e *ValidationError) Unwrap() error { return ErrInvalidRule }

// Validate checks every rule and returns all problems joined.
func (f *File) Validate() error {
	var errs []error
	for i := range f.Rules {
		errs = append(errs, f.Rules[i].validate(fmt.Sprintf("rules[%d]", i))...)
	}
	return errors.Join(errs...)
}

func (r *RuleConfig) validate(field string) []error {
	var errs []error
	fail := func(sub, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field + sub, Message: fmt.Sprintf(format, args...)})
	}

	if r.Method != "" && !httpguts.ValidHeaderFieldName(r.Method) {
		fail(".method", "invalid method %q", r.Method)
	}
	if r.Path != "" {
		if _, err := matching.Compile(r.Path); err != nil {
			fail(".path", "%v", err)
		}
	}
	if r.Times < 0 {
		fail(".times", "must not be negative, got %d", r.Times)
	}

	if res := r.Response; res != nil {
		if res.Status != 0 && (res.Status < 100 || res.Status > 999) {
			fail(".response.status", "must be between 100 and 999, got %d", res.Status)
		}
		if res.Body != nil && res.JSON != nil {
			fail(".response", "body and json are mutually exclusive")
		}
		for name, value := range res.Headers {
			if msg := checkHeader(name, value); msg != "" {
				fail(".response.headers", "%s", msg)
			}
		}
	}

	if exp := r.Expect; exp != nil {
		if exp.Body != nil && exp.JSON != nil {
			fail(".expect", "body and json are mutually exclusive")
		}
		for name, value := range exp.Headers {
			if msg := checkHeader(name, value); msg != "" {
				fail(".expect.headers", "%s", msg)
			}
		}
		for path, expected := range exp.JSONPath {
			if _, err := matching.CompileJSONPath(path, expected); err != nil {
				fail(".expect.jsonPath", "%v", err)
			}
		}
		if exp.Schema != nil {
			if _, err := matching.CompileSchema(exp.Schema); err != nil {
				fail(".expect.schema", "%v", err)
			}
		}
		if strings.TrimSpace(exp.Condition) != "" {
			if _, err := matching.CompileCondition(exp.Condition); err != nil {
				fail(".expect.condition", "%v", err)
			}
		}
	}
	return errs
}

func checkHeader(name, value string) string {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Sprintf("invalid header name %q", name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Sprintf("invalid value for header %s", name)
	}
	return ""
}
