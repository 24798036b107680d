package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// ErrInvalidExpression is returned when a JSONPath expression, JSON Schema or
// condition expression cannot be compiled.
var ErrInvalidExpression = errors.New("invalid expression")

// JSONPath is a compiled expectation that a JSONPath expression selects a
// given value from a JSON request body.
//
// An expected value of map{"exists": bool} checks presence instead of value.
type JSONPath struct {
	path     string
	expr     jp.Expr
	expected any
}

// CompileJSONPath parses path and pairs it with the expected value.
func CompileJSONPath(path string, expected any) (*JSONPath, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("%w: JSONPath %q: %v", ErrInvalidExpression, path, err)
	}
	return &JSONPath{path: path, expr: expr, expected: expected}, nil
}

// String returns the source expression.
func (p *JSONPath) String() string { return p.path }

// Check evaluates the expectation against body. It returns nil when the
// expectation holds and a descriptive error otherwise.
func (p *JSONPath) Check(body []byte) error {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("request body is not valid JSON: %v", err)
	}

	results := p.expr.Get(data)

	if isExistenceCheck(p.expected) {
		want := getExistsValue(p.expected)
		if want == (len(results) > 0) {
			return nil
		}
		if want {
			return fmt.Errorf("expected %s to exist in request body", p.path)
		}
		return fmt.Errorf("expected %s to be absent from request body", p.path)
	}

	if len(results) == 0 {
		return fmt.Errorf("Got %s, expected %v at %s in request body", missing, p.expected, p.path)
	}

	// Wildcard paths may select several values; any equal one satisfies.
	for _, result := range results {
		if valuesEqual(result, p.expected) {
			return nil
		}
	}
	return fmt.Errorf("Got %v, expected %v at %s in request body", results[0], p.expected, p.path)
}

// missing renders an absent actual value in mismatch messages.
const missing = "<missing>"

// isExistenceCheck determines if the expected value is an existence check object.
// An existence check is a map with an "exists" key containing a boolean.
func isExistenceCheck(expected any) bool {
	m, ok := expected.(map[string]any)
	if !ok {
		return false
	}
	_, hasExists := m["exists"]
	return hasExists && len(m) == 1
}

// getExistsValue extracts the boolean value from an existence check.
func getExistsValue(expected any) bool {
	m, ok := expected.(map[string]any)
	if !ok {
		return false
	}
	b, ok := m["exists"].(bool)
	return ok && b
}

// valuesEqual compares two values for equality, handling numeric coercion
// between JSON numbers and Go integer types.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	if reflect.DeepEqual(actual, expected) {
		return true
	}

	actualNum, actualIsNum := toFloat64(actual)
	expectedNum, expectedIsNum := toFloat64(expected)
	if actualIsNum && expectedIsNum {
		return actualNum == expectedNum
	}

	return false
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
