package authkit

import (
	"context"
	"fmt"

	"github.com/chirpd/authkit/token"
)

// VerifyEmail confirms an account's email. The presented token must equal
// the account's stored one; verification clears it, flips the account to
// Verified, and issues a fresh token pair carrying the new status. A
// repeat call on an already-verified account succeeds without side
// effects and reports AlreadyVerified.
func (e *Engine) VerifyEmail(ctx context.Context, userID, presentedToken string) (*VerifyEmailResult, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	user, err := e.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authkit: verify email lookup: %w", err)
	}
	if user == nil {
		e.emitAudit(ctx, AuditFlowVerifyEmail, false, userID, ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}

	if user.Verify == Verified && user.EmailVerifyToken == "" {
		e.emitAudit(ctx, AuditFlowVerifyEmail, true, userID, nil, map[string]string{"already_verified": "true"})
		return &VerifyEmailResult{AlreadyVerified: true}, nil
	}

	if user.EmailVerifyToken != presentedToken {
		e.emitAudit(ctx, AuditFlowVerifyEmail, false, userID, ErrEmailVerifyTokenIncorrect, nil)
		return nil, ErrEmailVerifyTokenIncorrect
	}

	fields := map[string]any{
		"email_verify_token": "",
		"verify":             Verified,
	}
	if err := e.directory.UpdateFields(ctx, userID, fields); err != nil {
		return nil, fmt.Errorf("authkit: verify email update: %w", err)
	}

	pair, err := e.issueSession(ctx, userID, Verified)
	if err != nil {
		e.emitAudit(ctx, AuditFlowVerifyEmail, false, userID, err, nil)
		return nil, err
	}

	e.metrics.inc(MetricEmailVerifySuccess)
	e.emitAudit(ctx, AuditFlowVerifyEmail, true, userID, nil, nil)
	return &VerifyEmailResult{Pair: pair}, nil
}

// ResendEmailVerify issues a new email-verification token, replacing any
// outstanding one, and re-sends the verification email. Already-verified
// accounts are acknowledged without a new token.
func (e *Engine) ResendEmailVerify(ctx context.Context, userID string) (Ack, error) {
	if err := e.checkOpen(); err != nil {
		return Ack{}, err
	}

	user, err := e.directory.FindByID(ctx, userID)
	if err != nil {
		return Ack{}, fmt.Errorf("authkit: resend verify lookup: %w", err)
	}
	if user == nil {
		e.emitAudit(ctx, AuditFlowResendEmailVerify, false, userID, ErrUserNotFound, nil)
		return Ack{}, ErrUserNotFound
	}
	if user.Verify == Banned {
		e.emitAudit(ctx, AuditFlowResendEmailVerify, false, userID, ErrUserBanned, nil)
		return Ack{}, ErrUserBanned
	}
	if user.Verify == Verified {
		e.emitAudit(ctx, AuditFlowResendEmailVerify, true, userID, nil, map[string]string{"already_verified": "true"})
		return Ack{Message: MsgEmailAlreadyVerified}, nil
	}

	emailVerifyToken, err := e.codec.Sign(userID, uint8(user.Verify), token.CategoryEmailVerify)
	if err != nil {
		return Ack{}, err
	}
	if err := e.directory.UpdateFields(ctx, userID, map[string]any{"email_verify_token": emailVerifyToken}); err != nil {
		return Ack{}, fmt.Errorf("authkit: resend verify update: %w", err)
	}

	e.sendVerificationEmail(ctx, user.Email, emailVerifyToken)

	e.emitAudit(ctx, AuditFlowResendEmailVerify, true, userID, nil, nil)
	return Ack{Message: MsgResendVerifyEmailSuccess}, nil
}
