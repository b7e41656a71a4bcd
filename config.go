package authkit

import (
	"errors"
	"fmt"
	"time"
)

// TokenConfig holds the per-category signing secrets and default
// lifetimes. All four secrets are required and must be pairwise distinct
// so a leaked secret for one category cannot mint tokens for another.
type TokenConfig struct {
	AccessSecret         []byte
	RefreshSecret        []byte
	EmailVerifySecret    []byte
	ForgotPasswordSecret []byte

	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	EmailVerifyTTL    time.Duration
	ForgotPasswordTTL time.Duration
}

// SessionConfig controls refresh-session persistence.
type SessionConfig struct {
	// RedisPrefix namespaces session keys.
	RedisPrefix string
}

// PasswordConfig controls digest computation.
type PasswordConfig struct {
	// Pepper is mixed into every password digest. At least 16 bytes.
	Pepper []byte
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking flows when the buffer
	// is full.
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// SecurityConfig holds deployment-posture switches.
type SecurityConfig struct {
	// ProductionMode tightens Validate and hides internal error detail at
	// the response boundary.
	ProductionMode bool
	// RejectBannedLogin makes Login fail banned accounts with Forbidden
	// even when the credentials are correct.
	RejectBannedLogin bool
}

// Config is the full engine configuration. Obtain a baseline with the
// Builder and override what the deployment needs; Build validates the
// result.
type Config struct {
	Token    TokenConfig
	Session  SessionConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:         15 * time.Minute,
			RefreshTTL:        100 * 24 * time.Hour,
			EmailVerifyTTL:    7 * 24 * time.Hour,
			ForgotPasswordTTL: 15 * time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix: "ak",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Security: SecurityConfig{
			RejectBannedLogin: true,
		},
	}
}

// Validate checks the configuration for internal consistency. It is called
// by Build and may be called directly on hand-assembled configs.
func (c *Config) Validate() error {
	secrets := []struct {
		name  string
		value []byte
	}{
		{"access", c.Token.AccessSecret},
		{"refresh", c.Token.RefreshSecret},
		{"email verify", c.Token.EmailVerifySecret},
		{"forgot password", c.Token.ForgotPasswordSecret},
	}
	for _, s := range secrets {
		if len(s.value) < 32 {
			return fmt.Errorf("config: %s token secret must be at least 32 bytes", s.name)
		}
	}
	for i := range secrets {
		for j := i + 1; j < len(secrets); j++ {
			if string(secrets[i].value) == string(secrets[j].value) {
				return fmt.Errorf("config: %s and %s token secrets must differ", secrets[i].name, secrets[j].name)
			}
		}
	}

	ttls := []struct {
		name  string
		value time.Duration
	}{
		{"access", c.Token.AccessTTL},
		{"refresh", c.Token.RefreshTTL},
		{"email verify", c.Token.EmailVerifyTTL},
		{"forgot password", c.Token.ForgotPasswordTTL},
	}
	for _, t := range ttls {
		if t.value <= 0 {
			return fmt.Errorf("config: %s token ttl must be positive", t.name)
		}
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("config: access token ttl must be shorter than refresh token ttl")
	}

	if c.Session.RedisPrefix == "" {
		return errors.New("config: session redis prefix is required")
	}
	if len(c.Password.Pepper) < 16 {
		return errors.New("config: password pepper must be at least 16 bytes")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("config: audit buffer size must be positive when audit is enabled")
	}

	if c.Security.ProductionMode {
		if c.Token.AccessTTL > time.Hour {
			return errors.New("config: production access token ttl must not exceed 1h")
		}
		if c.Token.RefreshTTL > 365*24*time.Hour {
			return errors.New("config: production refresh token ttl must not exceed 365 days")
		}
	}

	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneConfig(c Config) Config {
	c.Token.AccessSecret = cloneBytes(c.Token.AccessSecret)
	c.Token.RefreshSecret = cloneBytes(c.Token.RefreshSecret)
	c.Token.EmailVerifySecret = cloneBytes(c.Token.EmailVerifySecret)
	c.Token.ForgotPasswordSecret = cloneBytes(c.Token.ForgotPasswordSecret)
	c.Password.Pepper = cloneBytes(c.Password.Pepper)
	return c
}
