package matching

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPath is returned when a path spec cannot be compiled.
var ErrInvalidPath = errors.New("invalid path spec")

// PathMatcher is a predicate over request paths.
type PathMatcher interface {
	// Match reports whether the normalized request path is accepted.
	Match(path string) bool
	// String returns the canonical form of the compiled spec.
	String() string
}

// ParamMatcher is a PathMatcher that can extract named path parameters.
type ParamMatcher interface {
	PathMatcher
	Params(path string) map[string]string
}

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Compile turns a path spec into a PathMatcher.
//
// Supported forms:
//   - Literal: "/api/users" matches "/api/users" and "/api/users?x=1"
//   - Route template: "/api/users/:id" or "/api/users/{id}" matches one
//     non-empty segment per parameter, trailing slash optional
//   - Glob: "/api/**" or "/files/*.json" (doublestar syntax)
func Compile(spec string) (PathMatcher, error) {
	if spec == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if spec[0] != '/' && spec[0] != '*' {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPath, spec)
	}

	if strings.Contains(spec, "*") {
		if !doublestar.ValidatePattern(spec) {
			return nil, fmt.Errorf("%w: bad glob %q", ErrInvalidPath, spec)
		}
		return glob{pattern: spec}, nil
	}

	clean := Normalize(spec)
	if !isTemplate(clean) {
		return literal{path: clean}, nil
	}
	return compileTemplate(clean)
}

// MustCompile is like Compile but panics on error.
func MustCompile(spec string) PathMatcher {
	m, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return m
}

// Pattern wraps a pre-built regular expression. The expression is used as-is,
// so unanchored patterns match anywhere in the path.
func Pattern(re *regexp.Regexp) PathMatcher {
	return pattern{re: re}
}

// Nothing returns a matcher that accepts no path. spec is only used for
// String so log output still shows what was configured.
func Nothing(spec string) PathMatcher {
	return nothing{spec: spec}
}

// Normalize strips the query string and fragment from a request path.
// An empty result becomes "/".
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	return path
}

// MatchPath reports whether m accepts path. A nil matcher or an empty path
// matches everything.
func MatchPath(m PathMatcher, path string) bool {
	if m == nil || path == "" {
		return true
	}
	return m.Match(Normalize(path))
}

// Params extracts named parameters when m supports them.
func Params(m PathMatcher, path string) map[string]string {
	pm, ok := m.(ParamMatcher)
	if !ok {
		return nil
	}
	return pm.Params(Normalize(path))
}

func isTemplate(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ":") || strings.ContainsAny(seg, "{}") {
			return true
		}
	}
	return false
}

func compileTemplate(spec string) (PathMatcher, error) {
	trimmed := strings.TrimSuffix(spec, "/")
	segments := strings.Split(strings.TrimPrefix(trimmed, "/"), "/")
	seen := make(map[string]bool, len(segments))

	var b strings.Builder
	b.WriteString("^")
	for _, seg := range segments {
		b.WriteString("/")

		name, isParam, err := segmentParam(seg)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, spec, err)
		}
		if !isParam {
			b.WriteString(regexp.QuoteMeta(seg))
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q: duplicate parameter %q", ErrInvalidPath, spec, name)
		}
		seen[name] = true
		b.WriteString("(?P<" + name + ">[^/]+)")
	}
	b.WriteString("/?$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, spec, err)
	}
	return template{spec: spec, re: re}, nil
}

// segmentParam classifies one template segment.
func segmentParam(seg string) (name string, isParam bool, err error) {
	switch {
	case strings.HasPrefix(seg, ":"):
		name = seg[1:]
	case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
		name = seg[1 : len(seg)-1]
	case strings.Count(seg, "{") != strings.Count(seg, "}"):
		return "", false, fmt.Errorf("unbalanced braces in segment %q", seg)
	case strings.ContainsAny(seg, "{}"):
		return "", false, fmt.Errorf("parameter must fill the whole segment %q", seg)
	default:
		return "", false, nil
	}
	if !paramName.MatchString(name) {
		return "", false, fmt.Errorf("bad parameter name %q", name)
	}
	return name, true, nil
}

type literal struct {
	path string
}

func (l literal) Match(path string) bool { return Normalize(path) == l.path }
func (l literal) String() string         { return l.path }

type template struct {
	spec string
	re   *regexp.Regexp
}

func (t template) Match(path string) bool { return t.re.MatchString(Normalize(path)) }
func (t template) String() string         { return t.re.String() }

func (t template) Params(path string) map[string]string {
	return captures(t.re, Normalize(path))
}

type glob struct {
	pattern string
}

func (g glob) Match(path string) bool {
	ok, err := doublestar.Match(g.pattern, Normalize(path))
	return err == nil && ok
}

func (g glob) String() string { return g.pattern }

type pattern struct {
	re *regexp.Regexp
}

func (p pattern) Match(path string) bool { return p.re.MatchString(path) }
func (p pattern) String() string         { return p.re.String() }

func (p pattern) Params(path string) map[string]string {
	return captures(p.re, path)
}

type nothing struct {
	spec string
}

func (nothing) Match(string) bool { return false }
func (n nothing) String() string  { return n.spec }

// captures returns the named groups of re matched against s.
func captures(re *regexp.Regexp, s string) map[string]string {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i > 0 && name != "" && i < len(match) {
			out[name] = match[i]
		}
	}
	return out
}
