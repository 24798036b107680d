// Package testing wires an interception session into Go tests.
//
// New returns a Session bound to the test: rules registered on it only
// affect requests sent through its Client (or Transport), and everything is
// torn down when the test ends. Session logs go to t.Log.
//
// # Basic Usage
//
//	func TestFetchUser(t *testing.T) {
//	    s := itesting.New(t)
//
//	    s.Intercept("api.example.org").
//	        Get("/users/:id").
//	        Set(intercept.JSON(map[string]any{"id": 42, "name": "ada"}))
//
//	    user, err := NewAPIClient(s.Client()).FetchUser(42)
//	    require.NoError(t, err)
//	    assert.Equal(t, "ada", user.Name)
//
//	    s.AssertCalled(t, "GET", "/users/42")
//	    s.AssertDone(t)
//	}
//
// # Fixtures
//
// Rules can also come from YAML fixtures (see package config):
//
//	s.Load("testdata/users.yaml")
//
// # Request Log
//
// Every request the session sees, intercepted or bypassed, is recorded:
//
//	reqs := s.Intercepted()
//	reqs[0].AssertHeader(t, "Authorization", "Bearer token")
//	reqs[0].AssertJSONField(t, "user.name", "ada")
//
// # Global Interception
//
// WithGlobal also swaps http.DefaultTransport while the session is active,
// for code that uses http.DefaultClient. Such tests must not run in
// parallel.
package testing
