package transport

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request describes an outbound request as seen by the interception handlers.
type Request struct {
	// Method is the upper-case HTTP method.
	Method string
	// Host is the destination host, including the port when one was given.
	Host string
	// Path is the request path including the raw query, as sent on the wire.
	Path string
	// URL is the full request URL.
	URL *url.URL
	// Header holds the request headers.
	Header http.Header
	// Body is the unread request body. It is never nil.
	Body io.ReadCloser
}

// FromHTTP builds a Request from an outbound *http.Request. The body is
// shared, not copied.
func FromHTTP(req *http.Request) *Request {
	u := req.URL
	if u == nil {
		u = &url.URL{}
	}

	host := req.Host
	if host == "" {
		host = u.Host
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	body := req.Body
	if body == nil {
		body = http.NoBody
	}

	header := req.Header
	if header == nil {
		header = make(http.Header)
	}

	return &Request{
		Method: method,
		Host:   host,
		Path:   u.RequestURI(),
		URL:    u,
		Header: header,
		Body:   body,
	}
}

// Query returns the parsed query string of the request.
func (r *Request) Query() url.Values {
	if r.URL == nil {
		return url.Values{}
	}
	return r.URL.Query()
}
