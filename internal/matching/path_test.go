package matching

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		spec  string
		path  string
		match bool
	}{
		// Literal
		{"literal exact", "/some/path", "/some/path", true},
		{"literal ignores query", "/some/path", "/some/path?x=1", true},
		{"literal ignores fragment", "/some/path", "/some/path#top", true},
		{"literal spec query stripped", "/some/path?a=b", "/some/path", true},
		{"literal mismatch", "/some/path", "/some/other", false},
		{"literal prefix is not a match", "/some", "/some/path", false},
		{"literal root", "/", "/", true},

		// Route templates
		{"colon param", "/users/:id", "/users/123", true},
		{"brace param", "/users/{id}", "/users/123", true},
		{"param trailing slash", "/users/:id", "/users/123/", true},
		{"param needs a segment", "/users/:id", "/users/", false},
		{"param single segment only", "/users/:id", "/users/1/2", false},
		{"two params", "/orgs/:org/repos/:repo", "/orgs/a/repos/b?page=2", true},
		{"literal segment escaped", "/v1.0/:id", "/v1x0/1", false},

		// Globs
		{"glob single star", "/files/*.json", "/files/a.json", true},
		{"glob star does not cross segments", "/files/*.json", "/files/a/b.json", false},
		{"glob double star", "/api/**", "/api/a/b/c", true},
		{"glob mismatch", "/api/**", "/other/a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Compile(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.match, m.Match(tt.path), "Compile(%q).Match(%q)", tt.spec, tt.path)
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	t.Parallel()

	specs := []string{
		"",
		"some/path",
		"/users/:",
		"/users/{}",
		"/users/{id",
		"/users/id}",
		"/users/:id/posts/:id",
		"/users/:1abc",
		"/files/*[a-",
	}

	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			t.Parallel()
			m, err := Compile(spec)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestCompile_BraceMessages(t *testing.T) {
	t.Parallel()

	_, err := Compile("/files/{id}.json")
	require.ErrorIs(t, err, ErrInvalidPath)
	assert.Contains(t, err.Error(), "parameter must fill the whole segment")

	_, err = Compile("/files/{id")
	require.ErrorIs(t, err, ErrInvalidPath)
	assert.Contains(t, err.Error(), "unbalanced braces")
}

func TestCompile_Deterministic(t *testing.T) {
	t.Parallel()

	paths := []string{"/users/1", "/users/1/", "/users", "/users/1/2", "/users/abc?x=1"}

	pairs := [][2]string{
		{"/users/:id", "/users/:id"},
		{"/users/:id", "/users/{id}"},
		{"/users/:id", "/users/:id/"},
		{"/users", "/users?ignored=1"},
	}

	for _, pair := range pairs {
		a, err := Compile(pair[0])
		require.NoError(t, err)
		b, err := Compile(pair[1])
		require.NoError(t, err)

		assert.Equal(t, a.String(), b.String(), "%q vs %q", pair[0], pair[1])
		for _, p := range paths {
			assert.Equal(t, a.Match(p), b.Match(p), "%q vs %q on %q", pair[0], pair[1], p)
		}
	}
}

func TestParams(t *testing.T) {
	t.Parallel()

	m := MustCompile("/orgs/:org/repos/{repo}")
	assert.Equal(t, map[string]string{"org": "acme", "repo": "tools"}, Params(m, "/orgs/acme/repos/tools?tab=1"))
	assert.Nil(t, Params(m, "/orgs/acme"))

	assert.Nil(t, Params(MustCompile("/plain"), "/plain"))

	re := Pattern(regexp.MustCompile(`^/items/(?P<id>\d+)$`))
	assert.Equal(t, map[string]string{"id": "42"}, Params(re, "/items/42"))
}

func TestPattern(t *testing.T) {
	t.Parallel()

	m := Pattern(regexp.MustCompile(`/users/\d+`))
	assert.True(t, m.Match("/api/users/123/profile"))
	assert.False(t, m.Match("/api/users/abc"))
	assert.Equal(t, `/users/\d+`, m.String())
}

func TestNothing(t *testing.T) {
	t.Parallel()

	m := Nothing("/bad/:")
	assert.False(t, m.Match("/bad/x"))
	assert.Equal(t, "/bad/:", m.String())
}

func TestMatchPath_Lenient(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchPath(nil, "/anything"))
	assert.True(t, MatchPath(MustCompile("/a"), ""))
	assert.False(t, MatchPath(MustCompile("/a"), "/b"))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b", Normalize("/a/b?c=d"))
	assert.Equal(t, "/a", Normalize("/a#frag"))
	assert.Equal(t, "/", Normalize(""))
	assert.Equal(t, "/", Normalize("?x=1"))
}

func TestMustCompile_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustCompile("no-slash") })
}
