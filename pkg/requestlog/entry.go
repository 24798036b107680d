package requestlog

import "time"

// MaxBodySize is the number of body bytes kept in an Entry.
const MaxBodySize = 10 * 1024

// Entry captures one outbound request seen by the interceptor, whether a rule
// served it or it was bypassed to the real network.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the upper-case HTTP method.
	Method string `json:"method"`

	// Host is the destination host, including the port when one was given.
	Host string `json:"host"`

	// Path is the request path without the query string.
	Path string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers (multi-value).
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body content (truncated to MaxBodySize).
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// RuleID is the ID of the rule that served the request (empty if bypassed).
	RuleID string `json:"ruleID,omitempty"`

	// Bypassed is set when no rule cared about the destination and the
	// request went to the fallback transport.
	Bypassed bool `json:"bypassed,omitempty"`

	// ResponseStatus is the simulated status code.
	ResponseStatus int `json:"responseStatus,omitempty"`

	// ResponseBody is the simulated response body (truncated to MaxBodySize).
	ResponseBody string `json:"responseBody,omitempty"`

	// Duration is the time spent in the rule pipeline.
	Duration time.Duration `json:"duration"`

	// Error contains the failure raised by the pipeline, if any.
	Error string `json:"error,omitempty"`
}

// Truncate returns s cut to MaxBodySize bytes.
func Truncate(s string) string {
	if len(s) <= MaxBodySize {
		return s
	}
	return s[:MaxBodySize]
}
