package intercept

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/interaptor/internal/matching"
	"github.com/getmockd/interaptor/pkg/transport"
)

// Request is an intercepted request with its body buffered. It is passed to
// assertions and responders and is not retained after the pipeline ends.
type Request struct {
	// Method is the upper-case HTTP method.
	Method string
	// Host is the destination host, including the port when one was given.
	Host string
	// Path is the request path including the raw query.
	Path string
	// Query holds the parsed query string.
	Query url.Values
	// Header holds the request headers.
	Header http.Header
	// Body is the full request body.
	Body string
	// Params holds the values captured by a route template path, e.g.
	// {"id": "42"} for /users/:id.
	Params map[string]string
	// Raw is the descriptor delivered by the transport.
	Raw *transport.Request
}

func newRequest(raw *transport.Request, body []byte, path matching.PathMatcher) *Request {
	params := matching.Params(path, raw.Path)
	if params == nil {
		params = map[string]string{}
	}
	return &Request{
		Method: raw.Method,
		Host:   raw.Host,
		Path:   raw.Path,
		Query:  raw.Query(),
		Header: raw.Header,
		Body:   string(body),
		Params: params,
		Raw:    raw,
	}
}

// Param returns the route parameter name, or "".
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// DecodeJSON unmarshals the body into v.
func (r *Request) DecodeJSON(v any) error {
	return json.Unmarshal([]byte(r.Body), v)
}

func (r *Request) conditionEnv() matching.ConditionEnv {
	query := make(map[string]string, len(r.Query))
	for k, vs := range r.Query {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}

	var doc any
	if err := json.Unmarshal([]byte(r.Body), &doc); err != nil {
		doc = nil
	}

	return matching.ConditionEnv{
		Method:  strings.ToLower(r.Method),
		Host:    r.Host,
		Path:    matching.Normalize(r.Path),
		Query:   query,
		Headers: matching.FlattenHeaders(r.Header),
		Body:    r.Body,
		JSON:    doc,
	}
}
