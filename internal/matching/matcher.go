// Package matching provides request matching algorithms.
package matching

import (
	"net"
	"strings"
)

// Criteria is the set of constraints a rule places on a request. Empty
// fields are unconstrained.
type Criteria struct {
	Method string
	Host   string
	Path   PathMatcher
}

// Target describes the request side of a match.
type Target struct {
	Method string
	Host   string
	Path   string
}

// Matches reports whether every constraint in c is absent or satisfied by t.
func (c Criteria) Matches(t Target) bool {
	return MatchMethod(c.Method, t.Method) &&
		MatchHost(c.Host, t.Host) &&
		MatchPath(c.Path, t.Path)
}

// MatchMethod checks if the request method matches, ignoring case.
// An empty expectation or an unknown request method matches.
func MatchMethod(expected, actual string) bool {
	if expected == "" || actual == "" {
		return true
	}
	return strings.EqualFold(expected, actual)
}

// MatchHost checks if the request host matches exactly. When the expectation
// carries no port, the port of the request host is ignored.
// An empty expectation or an unknown request host matches.
func MatchHost(expected, actual string) bool {
	if expected == "" || actual == "" {
		return true
	}
	if expected == actual {
		return true
	}
	if strings.Contains(expected, ":") {
		return false
	}
	host, _, err := net.SplitHostPort(actual)
	return err == nil && host == expected
}
