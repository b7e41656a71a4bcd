// Package password computes deterministic peppered password digests. The
// digest of a given password is stable, so directories can look accounts
// up by (email, digest) equality; the pepper keeps raw database dumps
// uncrackable without the application secret.
package password
