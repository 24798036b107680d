package config

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/interaptor/pkg/intercept"
	"github.com/getmockd/interaptor/pkg/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse_Forms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		hosts []string
	}{
		{
			name: "document",
			input: `
log: {level: debug}
rules:
  - host: a.example
  - host: b.example
`,
			hosts: []string{"a.example", "b.example"},
		},
		{
			name:  "single rule",
			input: "host: a.example\nmethod: get\npath: /x\n",
			hosts: []string{"a.example"},
		},
		{
			name:  "list of rules",
			input: "- host: a.example\n- host: b.example\n- {}\n",
			hosts: []string{"a.example", "b.example", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.input))
			require.NoError(t, err)

			var hosts []string
			for _, r := range f.Rules {
				hosts = append(hosts, r.Host)
			}
			assert.Equal(t, tt.hosts, hosts)
		})
	}
}

func TestParse_FullRule(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(`
rules:
  - host: api.example.org
    method: post
    path: /users/:id
    times: 2
    response:
      status: 201
      headers: {X-A: b}
      json: {id: 1, tags: [x, y]}
    expect:
      headers: {Content-Type: application/json}
      jsonPath: {"$.name": ada}
      schema: {type: object}
      condition: 'method == "post"'
`))
	require.NoError(t, err)
	require.Len(t, f.Rules, 1)

	r := f.Rules[0]
	assert.Equal(t, "post", r.Method)
	assert.Equal(t, "/users/:id", r.Path)
	assert.Equal(t, 2, r.Times)
	require.NotNil(t, r.Response)
	assert.Equal(t, 201, r.Response.Status)
	assert.Equal(t, map[string]string{"X-A": "b"}, r.Response.Headers)
	assert.Nil(t, r.Response.Body)
	assert.NotNil(t, r.Response.JSON)
	require.NotNil(t, r.Expect)
	assert.Equal(t, "ada", r.Expect.JSONPath["$.name"])
	assert.Equal(t, `method == "post"`, r.Expect.Condition)
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("INTERAPTOR_TEST_HOST", "env.example")

	f, err := Parse([]byte("host: ${INTERAPTOR_TEST_HOST}\npath: ${INTERAPTOR_UNSET_PATH:-/fallback}\n"))
	require.NoError(t, err)
	assert.Equal(t, "env.example", f.Rules[0].Host)
	assert.Equal(t, "/fallback", f.Rules[0].Path)
}

func TestParse_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		field string
	}{
		{"bad path", "path: nope", "rules[0].path"},
		{"negative times", "times: -1", "rules[0].times"},
		{"bad status", "response: {status: 42}", "rules[0].response.status"},
		{"body and json", "response: {body: x, json: {a: 1}}", "rules[0].response"},
		{"bad header", "expect: {headers: {'Bad Header': x}}", "rules[0].expect.headers"},
		{"bad jsonpath", "expect: {jsonPath: {'$.a[': 1}}", "rules[0].expect.jsonPath"},
		{"bad condition", "expect: {condition: 'method =='}", "rules[0].expect.condition"},
		{"bad method", "method: 'g et'", "rules[0].method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.ErrorIs(t, err, ErrInvalidRule)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestParse_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("- path: nope\n- times: -2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules[0].path")
	assert.Contains(t, err.Error(), "rules[1].times")
}

func TestParse_BadYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("rules: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing YAML")
}

func TestLoad_Includes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	main := writeFile(t, dir, "main.yaml", `
include: ["fixtures/**/*.yaml", "main.yaml"]
rules:
  - host: main.example
`)
	writeFile(t, dir, "fixtures/b/second.yaml", "host: second.example\n")
	writeFile(t, dir, "fixtures/a/first.yaml", "- host: first.example\n- host: first2.example\n")
	writeFile(t, dir, "fixtures/readme.txt", "not yaml")

	f, err := Load(main)
	require.NoError(t, err)
	assert.Equal(t, main, f.Path)

	var hosts []string
	for _, r := range f.Rules {
		hosts = append(hosts, r.Host)
	}
	assert.Equal(t, []string{"main.example", "first.example", "first2.example", "second.example"}, hosts)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "file not found")

	empty := writeFile(t, dir, "empty.yaml", "  \n")
	_, err = Load(empty)
	assert.ErrorContains(t, err, "file is empty")

	bad := writeFile(t, dir, "bad.yaml", "include: [inc.yaml]\n")
	writeFile(t, dir, "inc.yaml", "path: nope\n")
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidRule)
	assert.ErrorContains(t, err, "inc.yaml")
}

func TestFile_Apply(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(`
rules:
  - host: api.example.org
    method: get
    path: /users/:id
    times: 2
    response:
      status: 200
      headers: {X-Source: fixture}
      json: {id: 1, name: ada}
  - host: api.example.org
    method: post
    path: /users
    expect:
      headers: {Content-Type: application/json}
      jsonPath: {"$.name": ada}
    response:
      status: 201
      body: created
`))
	require.NoError(t, err)

	reg := intercept.New(intercept.Options{})
	t.Cleanup(reg.Teardown)

	rules, err := f.Apply(reg)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 2, rules[0].Remaining())
	assert.Equal(t, rules, reg.Rules())

	client := reg.Client()
	for range 2 {
		resp, err := client.Get("http://api.example.org/users/1")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "fixture", resp.Header.Get("X-Source"))
		assert.Equal(t, `{"id":1,"name":"ada"}`, string(body))
	}

	resp, err := client.Post("http://api.example.org/users", "application/json", strings.NewReader(`{"name":"ada"}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "created", string(body))
	assert.True(t, reg.Done())
}

func TestFile_ApplyDisablesBrokenRules(t *testing.T) {
	t.Parallel()

	// Built by hand to skip Parse validation.
	f := &File{Rules: []RuleConfig{
		{Host: "ok.example"},
		{Host: "bad.example", Path: "nope"},
	}}

	reg := intercept.New(intercept.Options{})
	t.Cleanup(reg.Teardown)

	rules, err := f.Apply(reg)
	require.ErrorIs(t, err, ErrInvalidRule)
	assert.Contains(t, err.Error(), "rules[1]")
	require.Len(t, rules, 1)
	assert.Equal(t, "ok.example", rules[0].Host())
	assert.Len(t, reg.Rules(), 1)
}

func TestFile_Logger(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, (&File{}).Logger())

	f, err := Parse([]byte("log: {level: DEBUG, format: json}\nrules: []\n"))
	require.NoError(t, err)
	logger := f.Logger()
	assert.True(t, logger.Enabled(t.Context(), logging.LevelDebug))
}
