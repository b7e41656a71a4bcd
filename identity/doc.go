// Package identity implements OAuth identity-provider clients. The engine
// consumes them through the authkit.IdentityProvider interface; Google is
// the production implementation.
package identity
