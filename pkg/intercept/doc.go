// Package intercept simulates HTTP servers in tests by intercepting
// outbound requests in-process.
//
// A Registry holds an ordered list of rules. Each Rule says which requests
// it captures (host, method, path), what to answer (headers, status, body,
// or a custom Responder), what to expect from the request (headers, body,
// JSONPath values, a JSON Schema, an expression, or a custom Assertion) and
// how many requests it serves before it retires.
//
//	reg := intercept.New(intercept.Options{})
//	defer reg.Teardown()
//
//	reg.Intercept("example.org").
//		Post("/users").
//		Expect(intercept.Header("Content-Type", "application/json")).
//		Set(intercept.Status(201)).
//		Set(intercept.JSON(map[string]any{"id": 1}))
//
//	resp, err := reg.Client().Post("http://example.org/users", "application/json", body)
//
// # Matching
//
// The transport asks the registry twice per request. On connection, a
// request that no rule matches is bypassed to the real network. On request,
// the earliest registered rule that matches and still has a use serves it.
// Rule paths are literal ("/some/path"), route templates ("/users/:id",
// "/users/{id}"), globs ("/files/**"), or a *regexp.Regexp.
//
// # Failures
//
// Failed expectations never stop the response: headers, status and body are
// always produced and the use is always consumed. Where the failure goes
// depends on the rule. Without observers the first failure fails the
// request; the caller sees it as the error of the HTTP round trip. With
// observers attached through OnError, every failure is delivered to them
// asynchronously and the request succeeds.
package intercept
