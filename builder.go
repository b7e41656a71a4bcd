package authkit

import (
	"errors"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/chirpd/authkit/internal/audit"
	"github.com/chirpd/authkit/password"
	"github.com/chirpd/authkit/session"
	"github.com/chirpd/authkit/token"
)

// Builder assembles an Engine. Construction is allocation-only; no I/O
// happens until Build, and Build performs no I/O either — the first Redis
// round-trip is the first flow call.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	directory UserDirectory
	notifier  Notifier
	provider  IdentityProvider
	auditSink AuditSink
}

// New returns a builder seeded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithTokenSecrets sets the four per-category signing secrets.
func (b *Builder) WithTokenSecrets(access, refresh, emailVerify, forgotPassword []byte) *Builder {
	b.config.Token.AccessSecret = access
	b.config.Token.RefreshSecret = refresh
	b.config.Token.EmailVerifySecret = emailVerify
	b.config.Token.ForgotPasswordSecret = forgotPassword
	return b
}

// WithPepper sets the password digest pepper.
func (b *Builder) WithPepper(pepper []byte) *Builder {
	b.config.Password.Pepper = pepper
	return b
}

// WithRedis sets the Redis client backing the session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory sets the account persistence collaborator.
func (b *Builder) WithUserDirectory(directory UserDirectory) *Builder {
	b.directory = directory
	return b
}

// WithNotifier sets the email delivery collaborator. Without one, flows
// that would send email log instead.
func (b *Builder) WithNotifier(notifier Notifier) *Builder {
	b.notifier = notifier
	return b
}

// WithIdentityProvider sets the OAuth provider used by the OAuth flow.
func (b *Builder) WithIdentityProvider(provider IdentityProvider) *Builder {
	b.provider = provider
	return b
}

// WithAuditSink sets the sink receiving audit events; audit must also be
// enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithProductionMode toggles the production posture.
func (b *Builder) WithProductionMode(on bool) *Builder {
	b.config.Security.ProductionMode = on
	return b
}

// Build validates the configuration and wires the engine. The returned
// Engine is ready for concurrent use.
func (b *Builder) Build() (*Engine, error) {
	if b.redis == nil {
		return nil, errors.New("authkit: redis client is required")
	}
	if b.directory == nil {
		return nil, errors.New("authkit: user directory is required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(
		token.Secrets{
			Access:         cfg.Token.AccessSecret,
			Refresh:        cfg.Token.RefreshSecret,
			EmailVerify:    cfg.Token.EmailVerifySecret,
			ForgotPassword: cfg.Token.ForgotPasswordSecret,
		},
		token.TTLs{
			Access:         cfg.Token.AccessTTL,
			Refresh:        cfg.Token.RefreshTTL,
			EmailVerify:    cfg.Token.EmailVerifyTTL,
			ForgotPassword: cfg.Token.ForgotPasswordTTL,
		},
	)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password.Pepper)
	if err != nil {
		return nil, err
	}

	var dispatcher *internalaudit.Dispatcher
	if cfg.Audit.Enabled {
		dispatcher = internalaudit.NewDispatcher(cfg.Audit.BufferSize, cfg.Audit.DropIfFull, b.auditSink)
	}

	return &Engine{
		config:    cfg,
		codec:     codec,
		sessions:  session.NewStore(b.redis, cfg.Session.RedisPrefix),
		hasher:    hasher,
		directory: b.directory,
		notifier:  b.notifier,
		provider:  b.provider,
		metrics:   newMetricSet(cfg.Metrics),
		audit:     dispatcher,
	}, nil
}
