// Package matching provides the request matching primitives used by the
// interception registry.
//
// It covers:
//
//   - Path matching: literal paths, route templates with named parameters
//     (":id" or "{id}" segments), doublestar globs, and pre-built regular
//     expressions, all behind the PathMatcher interface
//   - Method and host predicates: lenient when either side is absent
//   - Header lookup: case-insensitive, repeated values joined with ", "
//   - Body checks: JSONPath expectations, JSON Schema validation and
//     boolean expression conditions evaluated against the request
//
// Everything that can be malformed is compiled up front so configuration
// errors surface when a rule is registered, never while a request is matched.
package matching
