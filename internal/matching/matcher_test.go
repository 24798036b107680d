package matching

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchMethod(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchMethod("get", "GET"))
	assert.True(t, MatchMethod("", "POST"))
	assert.True(t, MatchMethod("post", ""))
	assert.False(t, MatchMethod("get", "POST"))
}

func TestMatchHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expected, actual string
		want             bool
	}{
		{"example.org", "example.org", true},
		{"example.org", "example.org:8080", true},
		{"example.org:8080", "example.org:8080", true},
		{"example.org:8080", "example.org:9090", false},
		{"example.org:8080", "example.org", false},
		{"example.org", "api.example.org", false},
		{"", "anything", true},
		{"example.org", "", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchHost(tt.expected, tt.actual), "MatchHost(%q, %q)", tt.expected, tt.actual)
	}
}

func TestCriteria_Matches(t *testing.T) {
	t.Parallel()

	c := Criteria{Method: "get", Host: "example.org", Path: MustCompile("/some/path")}

	assert.True(t, c.Matches(Target{Method: "GET", Host: "example.org", Path: "/some/path?q=1"}))
	assert.False(t, c.Matches(Target{Method: "POST", Host: "example.org", Path: "/some/path"}))
	assert.False(t, c.Matches(Target{Method: "GET", Host: "example.com", Path: "/some/path"}))
	assert.False(t, c.Matches(Target{Method: "GET", Host: "example.org", Path: "/other"}))

	assert.True(t, Criteria{}.Matches(Target{Method: "DELETE", Host: "x", Path: "/y"}))
}

func TestHeaderValue(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("X-Test-Flag", "true")
	h.Add("Accept", "text/plain")
	h.Add("Accept", "application/json")
	h["x-raw"] = []string{"lower"}

	v, ok := HeaderValue(h, "x-test-flag")
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	v, ok = HeaderValue(h, "ACCEPT")
	assert.True(t, ok)
	assert.Equal(t, "text/plain, application/json", v)

	v, ok = HeaderValue(h, "X-Raw")
	assert.True(t, ok)
	assert.Equal(t, "lower", v)

	_, ok = HeaderValue(h, "X-Missing")
	assert.False(t, ok)
}

func TestFlattenHeaders(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Add("Accept", "a")
	h.Add("Accept", "b")

	assert.Equal(t, map[string]string{
		"content-type": "application/json",
		"accept":       "a, b",
	}, FlattenHeaders(h))
}
