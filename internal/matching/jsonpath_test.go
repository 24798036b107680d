package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONPath_Check(t *testing.T) {
	t.Parallel()

	body := []byte(`{"user":{"name":"ada","age":36},"tags":["a","b"]}`)

	tests := []struct {
		name     string
		path     string
		expected any
		wantErr  string
	}{
		{"string value", "$.user.name", "ada", ""},
		{"numeric coercion", "$.user.age", 36, ""},
		{"wildcard any", "$.tags[*]", "b", ""},
		{"exists", "$.user.name", map[string]any{"exists": true}, ""},
		{"absent", "$.user.email", map[string]any{"exists": false}, ""},
		{"mismatch", "$.user.name", "bob", "Got ada, expected bob at $.user.name in request body"},
		{"missing", "$.user.email", "x", "Got <missing>, expected x at $.user.email in request body"},
		{"exists fails", "$.user.email", map[string]any{"exists": true}, "expected $.user.email to exist in request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := CompileJSONPath(tt.path, tt.expected)
			require.NoError(t, err)

			err = p.Check(body)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestJSONPath_InvalidBody(t *testing.T) {
	t.Parallel()

	p, err := CompileJSONPath("$.a", 1)
	require.NoError(t, err)
	assert.ErrorContains(t, p.Check([]byte("not json")), "not valid JSON")
}

func TestCompileJSONPath_Invalid(t *testing.T) {
	t.Parallel()

	_, err := CompileJSONPath("$.a[", 1)
	assert.ErrorIs(t, err, ErrInvalidExpression)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	s, err := CompileSchema(map[string]any{
		"type":     "object",
		"required": []string{"key"},
		"properties": map[string]any{
			"key": map[string]any{"type": "string"},
		},
	})
	require.NoError(t, err)

	assert.NoError(t, s.Validate([]byte(`{"key":"value"}`)))
	assert.ErrorContains(t, s.Validate([]byte(`{"key":1}`)), "does not match schema")
	assert.ErrorContains(t, s.Validate([]byte(`{}`)), "does not match schema")
	assert.ErrorContains(t, s.Validate([]byte(`nope`)), "not valid JSON")

	_, err = CompileSchema(`{"type": 12}`)
	assert.ErrorIs(t, err, ErrInvalidExpression)
}

func TestCondition(t *testing.T) {
	t.Parallel()

	c, err := CompileCondition(`method == "post" && headers["x-flag"] == "true" && json.key == "value"`)
	require.NoError(t, err)
	assert.Equal(t, `method == "post" && headers["x-flag"] == "true" && json.key == "value"`, c.String())

	env := ConditionEnv{
		Method:  "post",
		Headers: map[string]string{"x-flag": "true"},
		Body:    `{"key":"value"}`,
		JSON:    map[string]any{"key": "value"},
	}
	assert.NoError(t, c.Check(env))

	env.Method = "get"
	assert.ErrorContains(t, c.Check(env), "not satisfied")

	_, err = CompileCondition(`method +`)
	assert.ErrorIs(t, err, ErrInvalidExpression)

	_, err = CompileCondition(`path`)
	assert.ErrorIs(t, err, ErrInvalidExpression, "non-bool expressions are rejected")
}
