package intercept

import (
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/getmockd/interaptor/pkg/transport"
)

const fallbackBody = "real network"

// newTestRegistry returns a registry on a private interceptor whose bypassed
// requests are counted and answered with 418.
func newTestRegistry(t *testing.T) (*Registry, *atomic.Int32) {
	t.Helper()

	var bypassed atomic.Int32
	tr := transport.New(transport.Options{
		Fallback: transport.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			bypassed.Add(1)
			return &http.Response{
				StatusCode: http.StatusTeapot,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(fallbackBody)),
				Request:    req,
			}, nil
		}),
	})
	reg := New(Options{Transport: tr})
	t.Cleanup(reg.Teardown)
	return reg, &bypassed
}

func do(t *testing.T, reg *Registry, method, url, body string, header http.Header) (*http.Response, string, error) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := reg.Client().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data), nil
}

func get(t *testing.T, reg *Registry, url string) (*http.Response, string, error) {
	t.Helper()
	return do(t, reg, http.MethodGet, url, "", nil)
}

func descriptor(method, host, path string) *transport.Request {
	req, _ := http.NewRequest(method, "http://"+host+path, nil)
	return transport.FromHTTP(req)
}
