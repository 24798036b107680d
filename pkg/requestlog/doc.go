// Package requestlog records the outbound requests seen during an
// interception session so tests can inspect them afterwards.
//
// It is distinct from operational logging (which uses log/slog). Every
// request reaching the interceptor produces one Entry: requests served by a
// rule carry the rule ID and the simulated response, bypassed requests carry
// Bypassed=true.
//
// # Usage
//
//	store := requestlog.NewMemoryStore(0)
//	registry := intercept.New(intercept.Options{Journal: store})
//	// ... exercise code under test ...
//	hits := store.List(&requestlog.Filter{Method: "GET", Path: "/users"})
//
// This is a leaf package, importable from anywhere without cycles.
package requestlog
