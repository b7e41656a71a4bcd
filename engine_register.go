package authkit

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/chirpd/authkit/token"
)

// Register provisions an account and signs it in. The account id is
// allocated up front so the email-verification token can embed it before
// the insert. The caller receives a live token pair immediately; email
// verification gates verified-only features, not authentication.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (TokenPair, error) {
	if err := e.checkOpen(); err != nil {
		return TokenPair{}, err
	}

	existing, err := e.directory.FindByEmail(ctx, input.Email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("authkit: register lookup: %w", err)
	}
	if existing != nil {
		e.emitAudit(ctx, AuditFlowRegister, false, "", ErrEmailAlreadyExists, nil)
		return TokenPair{}, ErrEmailAlreadyExists
	}

	dateOfBirth, err := parseBirthDate(input.DateOfBirth)
	if err != nil {
		return TokenPair{}, NewError(400, MsgDateOfBirthMustBeISO8601)
	}

	id := uuid.NewString()
	emailVerifyToken, err := e.codec.Sign(id, uint8(Unverified), token.CategoryEmailVerify)
	if err != nil {
		return TokenPair{}, err
	}

	now := time.Now()
	account := &UserAccount{
		ID:               id,
		Email:            input.Email,
		Username:         "user" + id,
		Name:             input.Name,
		Password:         e.hasher.Hash(input.Password),
		DateOfBirth:      dateOfBirth,
		Verify:           Unverified,
		EmailVerifyToken: emailVerifyToken,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.directory.Insert(ctx, account); err != nil {
		e.emitAudit(ctx, AuditFlowRegister, false, id, err, nil)
		return TokenPair{}, fmt.Errorf("authkit: register insert: %w", err)
	}

	pair, err := e.issueSession(ctx, id, Unverified)
	if err != nil {
		e.emitAudit(ctx, AuditFlowRegister, false, id, err, nil)
		return TokenPair{}, err
	}

	e.sendVerificationEmail(ctx, input.Email, emailVerifyToken)

	e.metrics.inc(MetricRegisterSuccess)
	e.emitAudit(ctx, AuditFlowRegister, true, id, nil, nil)
	return pair, nil
}

// OAuth signs a user in through the configured identity provider. Known
// emails get a session for the existing account; unknown emails are
// provisioned with a random password and go through the normal register
// path, so they start Unverified and receive a verification email.
func (e *Engine) OAuth(ctx context.Context, code string) (*OAuthResult, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if e.provider == nil {
		return nil, ErrIdentityProviderNotConfigured
	}

	tokens, err := e.provider.ExchangeCode(ctx, code)
	if err != nil {
		e.emitAudit(ctx, AuditFlowOAuth, false, "", err, nil)
		return nil, err
	}
	profile, err := e.provider.FetchProfile(ctx, tokens)
	if err != nil {
		e.emitAudit(ctx, AuditFlowOAuth, false, "", err, nil)
		return nil, err
	}
	if !profile.EmailVerified {
		e.emitAudit(ctx, AuditFlowOAuth, false, "", ErrOAuthEmailNotVerified, nil)
		return nil, ErrOAuthEmailNotVerified
	}

	user, err := e.directory.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("authkit: oauth lookup: %w", err)
	}

	if user != nil {
		pair, err := e.issueSession(ctx, user.ID, user.Verify)
		if err != nil {
			e.emitAudit(ctx, AuditFlowOAuth, false, user.ID, err, nil)
			return nil, err
		}
		e.metrics.inc(MetricOAuthLogin)
		e.emitAudit(ctx, AuditFlowOAuth, true, user.ID, nil, map[string]string{"new_user": "false"})
		return &OAuthResult{Pair: pair, NewUser: false, Verify: user.Verify}, nil
	}

	generated, err := randomPassword()
	if err != nil {
		return nil, err
	}
	pair, err := e.Register(ctx, RegisterInput{
		Name:            profile.Name,
		Email:           profile.Email,
		Password:        generated,
		ConfirmPassword: generated,
		DateOfBirth:     time.Now().Format(time.RFC3339),
	})
	if err != nil {
		e.emitAudit(ctx, AuditFlowOAuth, false, "", err, nil)
		return nil, err
	}

	e.metrics.inc(MetricOAuthSignup)
	e.emitAudit(ctx, AuditFlowOAuth, true, "", nil, map[string]string{"new_user": "true"})
	return &OAuthResult{Pair: pair, NewUser: true, Verify: Unverified}, nil
}

// parseBirthDate accepts both RFC 3339 timestamps and bare calendar
// dates, matching what the date_of_birth schema rule admits.
func parseBirthDate(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.DateOnly, value)
}

// randomPassword generates throwaway credentials for OAuth-provisioned
// accounts. The user resets it through the forgot-password flow if they
// ever want password login.
func randomPassword() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("authkit: generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// sendVerificationEmail delivers best-effort; a delivery failure never
// fails the owning flow, the user can request a resend.
func (e *Engine) sendVerificationEmail(ctx context.Context, address, verifyToken string) {
	if e.notifier == nil {
		log.Printf("authkit: no notifier configured, verification email to %s skipped", address)
		return
	}
	if err := e.notifier.SendVerificationEmail(ctx, address, verifyToken); err != nil {
		log.Printf("authkit: verification email dispatch failed: %v", err)
	}
}

// sendPasswordResetEmail delivers best-effort, same policy as
// sendVerificationEmail.
func (e *Engine) sendPasswordResetEmail(ctx context.Context, address, resetToken string) {
	if e.notifier == nil {
		log.Printf("authkit: no notifier configured, password reset email to %s skipped", address)
		return
	}
	if err := e.notifier.SendPasswordResetEmail(ctx, address, resetToken); err != nil {
		log.Printf("authkit: password reset email dispatch failed: %v", err)
	}
}
