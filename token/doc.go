// Package token signs and verifies category-scoped HMAC-SHA256 tokens.
// Each category (access, refresh, email-verify, forgot-password) has its
// own secret and default lifetime; a token signed under one category never
// verifies under another.
package token
