package authkit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	internalaudit "github.com/chirpd/authkit/internal/audit"
	"github.com/chirpd/authkit/password"
	"github.com/chirpd/authkit/session"
	"github.com/chirpd/authkit/token"
)

// Engine orchestrates the authentication flows over its injected
// collaborators. Build one with [Builder.Build]; all methods are safe for
// concurrent use.
type Engine struct {
	config    Config
	codec     *token.Codec
	sessions  *session.Store
	hasher    *password.Hasher
	directory UserDirectory
	notifier  Notifier
	provider  IdentityProvider
	metrics   *metricSet
	audit     *internalaudit.Dispatcher
	closed    atomic.Bool
}

// Close flushes and stops the audit dispatcher. Flows invoked after Close
// fail with ErrEngineClosed.
func (e *Engine) Close() {
	if e.closed.CompareAndSwap(false, true) {
		e.audit.Close()
	}
}

func (e *Engine) checkOpen() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return nil
}

// mapTokenError translates codec failures into the public error model.
func mapTokenError(err error) error {
	if errors.Is(err, token.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}

// issueSession signs a fresh access/refresh pair and persists the refresh
// session record with the refresh token's own iat/exp.
func (e *Engine) issueSession(ctx context.Context, userID string, verify VerifyStatus) (TokenPair, error) {
	access, err := e.codec.Sign(userID, uint8(verify), token.CategoryAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := e.codec.Sign(userID, uint8(verify), token.CategoryRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	claims, err := e.codec.Verify(refresh, token.CategoryRefresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("authkit: decode issued refresh token: %w", err)
	}
	record := &session.Record{
		Token:     refresh,
		UserID:    userID,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	}
	if err := e.sessions.Put(ctx, record); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Login authenticates by (email, password digest) equality and issues a
// token pair. Wrong email and wrong password are indistinguishable to the
// caller.
func (e *Engine) Login(ctx context.Context, email, plainPassword string) (TokenPair, error) {
	if err := e.checkOpen(); err != nil {
		return TokenPair{}, err
	}

	user, err := e.directory.FindByEmailAndPasswordHash(ctx, email, e.hasher.Hash(plainPassword))
	if err != nil {
		return TokenPair{}, fmt.Errorf("authkit: login lookup: %w", err)
	}
	if user == nil {
		e.metrics.inc(MetricLoginFailure)
		e.emitAudit(ctx, AuditFlowLogin, false, "", ErrCredentialsIncorrect, nil)
		return TokenPair{}, ErrCredentialsIncorrect
	}
	if user.Verify == Banned && e.config.Security.RejectBannedLogin {
		e.metrics.inc(MetricLoginFailure)
		e.emitAudit(ctx, AuditFlowLogin, false, user.ID, ErrUserBanned, nil)
		return TokenPair{}, ErrUserBanned
	}

	pair, err := e.issueSession(ctx, user.ID, user.Verify)
	if err != nil {
		e.emitAudit(ctx, AuditFlowLogin, false, user.ID, err, nil)
		return TokenPair{}, err
	}

	e.metrics.inc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditFlowLogin, true, user.ID, nil, map[string]string{
		"verify": user.Verify.String(),
	})
	return pair, nil
}

// Logout revokes the session for the given refresh token. Revoking an
// already-absent session still succeeds; logout is idempotent.
func (e *Engine) Logout(ctx context.Context, refreshToken string) (Ack, error) {
	if err := e.checkOpen(); err != nil {
		return Ack{}, err
	}

	if err := e.sessions.DeleteByToken(ctx, refreshToken); err != nil {
		e.emitAudit(ctx, AuditFlowLogout, false, "", err, nil)
		return Ack{}, err
	}

	e.metrics.inc(MetricLogout)
	e.emitAudit(ctx, AuditFlowLogout, true, "", nil, nil)
	return Ack{Message: MsgLogoutSuccess}, nil
}

// RefreshToken rotates a refresh token: the presented token is consumed
// atomically and a new pair is issued. The new refresh token inherits the
// consumed session's absolute expiry, so rotation never extends the
// session's total lifetime. A token that verifies but has no live record
// was already rotated, revoked, or expired; it fails with ErrTokenRevoked.
func (e *Engine) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := e.checkOpen(); err != nil {
		return TokenPair{}, err
	}

	claims, err := e.codec.Verify(refreshToken, token.CategoryRefresh)
	if err != nil {
		mapped := mapTokenError(err)
		e.emitAudit(ctx, AuditFlowRefresh, false, "", mapped, nil)
		return TokenPair{}, mapped
	}

	record, err := e.sessions.TakeByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			e.metrics.inc(MetricRefreshReuseDetected)
			e.emitAudit(ctx, AuditFlowRefresh, false, claims.UserID, ErrTokenRevoked, nil)
			return TokenPair{}, ErrTokenRevoked
		}
		e.emitAudit(ctx, AuditFlowRefresh, false, claims.UserID, err, nil)
		return TokenPair{}, err
	}

	access, err := e.codec.Sign(claims.UserID, claims.Verify, token.CategoryAccess)
	if err != nil {
		return TokenPair{}, err
	}
	expiresAt := time.Unix(record.ExpiresAt, 0)
	refreshed, err := e.codec.SignWithExpiry(claims.UserID, claims.Verify, token.CategoryRefresh, expiresAt)
	if err != nil {
		return TokenPair{}, err
	}

	next := &session.Record{
		Token:     refreshed,
		UserID:    claims.UserID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: record.ExpiresAt,
	}
	if err := e.sessions.Put(ctx, next); err != nil {
		if errors.Is(err, session.ErrRecordExpired) {
			return TokenPair{}, ErrTokenExpired
		}
		e.emitAudit(ctx, AuditFlowRefresh, false, claims.UserID, err, nil)
		return TokenPair{}, err
	}

	e.metrics.inc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditFlowRefresh, true, claims.UserID, nil, nil)
	return TokenPair{AccessToken: access, RefreshToken: refreshed}, nil
}
