// Package session persists refresh-token session records in Redis. Records
// carry the issuing token's absolute expiry and are stored with a matching
// TTL, so Redis expires dead sessions passively; no sweeper runs. Rotation
// consumes records atomically with GETDEL so only one concurrent rotation
// of the same token can win.
package session
