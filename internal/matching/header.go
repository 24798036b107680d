package matching

import (
	"net/http"
	"strings"
)

// HeaderValue returns the value of the named header. Names are compared
// case-insensitively and repeated values are joined with ", ".
func HeaderValue(headers http.Header, name string) (string, bool) {
	if vals := headers.Values(name); len(vals) > 0 {
		return strings.Join(vals, ", "), true
	}

	// Header maps built by hand may carry non-canonical keys.
	for k, vals := range headers {
		if strings.EqualFold(k, name) && len(vals) > 0 {
			return strings.Join(vals, ", "), true
		}
	}
	return "", false
}

// FlattenHeaders converts headers into a single-value map keyed by the
// lower-cased header name.
func FlattenHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for k, vals := range headers {
		out[strings.ToLower(k)] = strings.Join(vals, ", ")
	}
	return out
}
