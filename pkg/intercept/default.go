package intercept

import (
	"sync"

	"github.com/getmockd/interaptor/pkg/transport"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide Registry. Its transport replaces
// http.DefaultTransport while the registry is active, so code using
// http.DefaultClient or http.Get is intercepted.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New(Options{
			Transport: transport.New(transport.Options{Global: true}),
		})
	})
	return defaultRegistry
}

// Intercept registers a rule for host on the Default registry.
func Intercept(host string) *Rule {
	return Default().Intercept(host)
}

// Teardown ends the Default registry's session.
func Teardown() {
	Default().Teardown()
}
