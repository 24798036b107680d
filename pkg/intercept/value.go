package intercept

import (
	"fmt"

	"golang.org/x/net/http/httpguts"

	"github.com/getmockd/interaptor/internal/matching"
	"github.com/getmockd/interaptor/internal/stringify"
	"github.com/getmockd/interaptor/pkg/transport"
)

// Responder writes a custom response. It runs after configured headers and
// status are applied and before the configured body ends the response.
type Responder func(req *Request, w transport.ResponseSink)

// Assertion checks an intercepted request. A returned error, or a panic, is
// reported as a failure of the rule.
type Assertion func(req *Request) error

type valueKind int

const (
	kindHeader valueKind = iota + 1
	kindStatus
	kindBody
	kindResponder
	kindAssertion
	kindJSONPath
	kindSchema
	kindCondition
)

var kindNames = map[valueKind]string{
	kindHeader:    "header",
	kindStatus:    "status",
	kindBody:      "body",
	kindResponder: "responder",
	kindAssertion: "assertion",
	kindJSONPath:  "JSONPath",
	kindSchema:    "schema",
	kindCondition: "condition",
}

func (k valueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "empty value"
}

// Value is one piece of rule configuration, passed to Rule.Set or
// Rule.Expect. Build it with Header, Status, Text, JSON, Respond, Check,
// JSONPath, Schema or Condition.
type Value struct {
	kind      valueKind
	name      string
	text      string
	status    int
	responder Responder
	assertion Assertion
	jsonPath  *matching.JSONPath
	schema    *matching.Schema
	condition *matching.Condition
	err       error
}

// Header is a response header (Set) or an expected request header (Expect).
func Header(name, value string) Value {
	v := Value{kind: kindHeader, name: name, text: value}
	switch {
	case !httpguts.ValidHeaderFieldName(name):
		v.err = fmt.Errorf("%w: header name %q", ErrInvalidValue, name)
	case !httpguts.ValidHeaderFieldValue(value):
		v.err = fmt.Errorf("%w: value of header %s", ErrInvalidValue, name)
	}
	return v
}

// Status is the response status (Set) or the expected status (Expect).
func Status(code int) Value {
	v := Value{kind: kindStatus, status: code}
	if code < 100 || code > 999 {
		v.err = fmt.Errorf("%w: status %d", ErrInvalidValue, code)
	}
	return v
}

// Text is a literal response body (Set) or expected request body (Expect).
func Text(body string) Value {
	return Value{kind: kindBody, text: body}
}

// JSON is a structured body serialized to JSON. Circular references are
// replaced by a "[Circular ~path]" marker instead of failing.
func JSON(body any) Value {
	v := Value{kind: kindBody}
	if body == nil {
		v.err = fmt.Errorf("%w: nil JSON body", ErrInvalidValue)
		return v
	}
	text, err := stringify.String(body)
	if err != nil {
		v.err = fmt.Errorf("%w: JSON body: %v", ErrInvalidValue, err)
		return v
	}
	v.text = text
	return v
}

// Respond is a custom responder. Set only.
func Respond(fn Responder) Value {
	v := Value{kind: kindResponder, responder: fn}
	if fn == nil {
		v.err = fmt.Errorf("%w: nil responder", ErrInvalidValue)
	}
	return v
}

// Check is a custom assertion. Expect only.
func Check(fn Assertion) Value {
	v := Value{kind: kindAssertion, assertion: fn}
	if fn == nil {
		v.err = fmt.Errorf("%w: nil assertion", ErrInvalidValue)
	}
	return v
}

// JSONPath expects the JSON request body to hold expected at path.
// An expected value of map[string]any{"exists": bool} checks presence only.
// Expect only.
func JSONPath(path string, expected any) Value {
	p, err := matching.CompileJSONPath(path, expected)
	return Value{kind: kindJSONPath, jsonPath: p, err: err}
}

// Schema expects the JSON request body to validate against a JSON Schema,
// given as JSON text or a structured value. Expect only.
func Schema(schema any) Value {
	s, err := matching.CompileSchema(schema)
	return Value{kind: kindSchema, schema: s, err: err}
}

// Condition expects a boolean expression over the request to hold, e.g.
// `method == "post" && json.count > 2`. Expect only.
func Condition(expression string) Value {
	c, err := matching.CompileCondition(expression)
	return Value{kind: kindCondition, condition: c, err: err}
}
