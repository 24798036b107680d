package testing

import (
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/getmockd/interaptor/internal/matching"
	"github.com/getmockd/interaptor/pkg/requestlog"
)

// RequestLog is a recorded request, for assertions.
type RequestLog struct {
	// Method is the HTTP method (GET, POST, etc.)
	Method string
	// Host is the destination host.
	Host string
	// Path is the request path without the query string.
	Path string
	// Headers are the request headers (repeated values joined with ", ")
	Headers map[string]string
	// Body is the request body content (empty for bypassed requests)
	Body string
	// QueryString is the raw query string
	QueryString string
	// RuleID is the ID of the rule that served the request
	RuleID string
	// Bypassed is set for requests sent to the real network
	Bypassed bool
	// Status is the simulated response status
	Status int
	// Error is the failure raised while serving the request
	Error string
}

func newRequestLog(e *requestlog.Entry) RequestLog {
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		headers[k] = strings.Join(v, ", ")
	}
	return RequestLog{
		Method:      e.Method,
		Host:        e.Host,
		Path:        e.Path,
		Headers:     headers,
		Body:        e.Body,
		QueryString: e.QueryString,
		RuleID:      e.RuleID,
		Bypassed:    e.Bypassed,
		Status:      e.ResponseStatus,
		Error:       e.Error,
	}
}

// Header returns the value of the named header, ignoring case.
func (r *RequestLog) Header(key string) (string, bool) {
	if v, ok := r.Headers[key]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// AssertJSONBody asserts that the request body matches the expected JSON.
// The expected value can be a string, []byte, or any value that will be JSON encoded.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var expectedJSON, actualJSON any

	var raw []byte
	switch v := expected.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		raw = data
	}
	if err := json.Unmarshal(raw, &expectedJSON); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}

	if err := json.Unmarshal([]byte(r.Body), &actualJSON); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(expectedBytes), string(actualBytes))
	}
}

// AssertBody asserts that the request body exactly matches the expected string.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts that the request body contains the expected substring.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()

	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertHeader asserts that the request had the specified header with the expected value.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	actual, ok := r.Header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertHeaderExists asserts that the request had the specified header (any value).
func (r *RequestLog) AssertHeaderExists(t testing.TB, key string) {
	t.Helper()

	if _, ok := r.Header(key); !ok {
		t.Errorf("request does not have header %q", key)
	}
}

// AssertQueryParam asserts that the request had the specified query parameter.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	params, _ := url.ParseQuery(r.QueryString)
	if !params.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := params.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertMethod asserts that the request used the expected HTTP method.
func (r *RequestLog) AssertMethod(t testing.TB, expected string) {
	t.Helper()

	if !strings.EqualFold(r.Method, expected) {
		t.Errorf("request method mismatch\nexpected: %q\nactual: %q", expected, r.Method)
	}
}

// AssertPath asserts that the request path matches expected, which may be
// a literal path, a route template or a glob.
func (r *RequestLog) AssertPath(t testing.TB, expected string) {
	t.Helper()

	if r.Path == expected {
		return
	}
	if m, err := matching.Compile(expected); err == nil && m.Match(r.Path) {
		return
	}
	t.Errorf("request path mismatch\nexpected: %q\nactual: %q", expected, r.Path)
}

// JSONField extracts a field from the request body JSON using dot notation.
// Returns nil if the body is not valid JSON or the field doesn't exist.
func (r *RequestLog) JSONField(field string) any {
	var current any
	if err := json.Unmarshal([]byte(r.Body), &current); err != nil {
		return nil
	}

	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// AssertJSONField asserts that a JSON field in the request body has the expected value.
func (r *RequestLog) AssertJSONField(t testing.TB, field string, expected any) {
	t.Helper()

	actual := r.JSONField(field)
	if actual == nil {
		t.Errorf("JSON field %q not found in request body: %s", field, r.Body)
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			field, expected, expected, actual, actual)
	}
}
