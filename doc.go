// Package authkit provides a session-authentication engine with category-scoped
// signed tokens, Redis-backed revocable refresh sessions, a declarative
// request-validation pipeline, and the complete account flow set:
// register, login, logout, refresh rotation, email verification, password
// reset, password change, and OAuth sign-in.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// the error model ([Error], [ValidationError]), and the request-validation
// schema constructors. Token signing lives in the token sub-package, session
// persistence in session, digest computation in password, the generic rule
// pipeline in validate, and OAuth provider clients in identity.
//
// # What this package must NOT do
//
//   - Expose Redis clients or session encoding details in its public API.
//   - Hold package-level mutable state; every collaborator is injected
//     through the Builder.
//   - Perform I/O outside of Engine methods and schema rule execution
//     (construction via Builder is allocation-only until Build).
package authkit
