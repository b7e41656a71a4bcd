package authkit

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/chirpd/authkit/token"
)

// ForgotPassword issues a password-reset token, stores it on the account —
// replacing any outstanding one, so exactly one reset token is valid per
// account — and emails it best-effort.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (Ack, error) {
	if err := e.checkOpen(); err != nil {
		return Ack{}, err
	}

	user, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		return Ack{}, fmt.Errorf("authkit: forgot password lookup: %w", err)
	}
	if user == nil {
		e.emitAudit(ctx, AuditFlowForgotPassword, false, "", ErrUserNotFound, nil)
		return Ack{}, ErrUserNotFound
	}

	resetToken, err := e.codec.Sign(user.ID, uint8(user.Verify), token.CategoryForgotPassword)
	if err != nil {
		return Ack{}, err
	}
	if err := e.directory.UpdateFields(ctx, user.ID, map[string]any{"forgot_password_token": resetToken}); err != nil {
		return Ack{}, fmt.Errorf("authkit: forgot password update: %w", err)
	}

	e.sendPasswordResetEmail(ctx, user.Email, resetToken)

	e.emitAudit(ctx, AuditFlowForgotPassword, true, user.ID, nil, nil)
	return Ack{Message: MsgCheckEmailToResetPassword}, nil
}

// VerifyForgotPasswordToken checks that the presented reset token is the
// account's currently valid one and returns its claims. It performs no
// writes; ResetPassword consumes the token.
func (e *Engine) VerifyForgotPasswordToken(ctx context.Context, presentedToken string) (*token.Claims, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	claims, err := e.codec.Verify(presentedToken, token.CategoryForgotPassword)
	if err != nil {
		mapped := mapTokenError(err)
		e.emitAudit(ctx, AuditFlowVerifyForgotPasswordToken, false, "", mapped, nil)
		return nil, mapped
	}

	user, err := e.directory.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("authkit: verify forgot token lookup: %w", err)
	}
	if user == nil {
		e.emitAudit(ctx, AuditFlowVerifyForgotPasswordToken, false, claims.UserID, ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}
	if subtle.ConstantTimeCompare([]byte(user.ForgotPasswordToken), []byte(presentedToken)) != 1 {
		e.emitAudit(ctx, AuditFlowVerifyForgotPasswordToken, false, claims.UserID, ErrForgotPasswordTokenIncorrect, nil)
		return nil, ErrForgotPasswordTokenIncorrect
	}

	e.emitAudit(ctx, AuditFlowVerifyForgotPasswordToken, true, claims.UserID, nil, nil)
	return claims, nil
}

// ResetPassword verifies the reset token and replaces the account's
// password, clearing the token so it cannot be replayed. Outstanding
// sessions stay live; the caller decides whether to force re-login.
func (e *Engine) ResetPassword(ctx context.Context, presentedToken, newPassword string) (Ack, error) {
	if err := e.checkOpen(); err != nil {
		return Ack{}, err
	}

	claims, err := e.VerifyForgotPasswordToken(ctx, presentedToken)
	if err != nil {
		return Ack{}, err
	}

	fields := map[string]any{
		"password":              e.hasher.Hash(newPassword),
		"forgot_password_token": "",
	}
	if err := e.directory.UpdateFields(ctx, claims.UserID, fields); err != nil {
		return Ack{}, fmt.Errorf("authkit: reset password update: %w", err)
	}

	e.metrics.inc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, AuditFlowResetPassword, true, claims.UserID, nil, nil)
	return Ack{Message: MsgResetPasswordSuccess}, nil
}

// ChangePassword replaces the password of an authenticated account after
// checking the old one against the stored digest.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (Ack, error) {
	if err := e.checkOpen(); err != nil {
		return Ack{}, err
	}

	user, err := e.directory.FindByID(ctx, userID)
	if err != nil {
		return Ack{}, fmt.Errorf("authkit: change password lookup: %w", err)
	}
	if user == nil {
		e.emitAudit(ctx, AuditFlowChangePassword, false, userID, ErrUserNotFound, nil)
		return Ack{}, ErrUserNotFound
	}
	if !e.hasher.Match(oldPassword, user.Password) {
		e.emitAudit(ctx, AuditFlowChangePassword, false, userID, ErrOldPasswordIncorrect, nil)
		return Ack{}, ErrOldPasswordIncorrect
	}

	if err := e.directory.UpdateFields(ctx, userID, map[string]any{"password": e.hasher.Hash(newPassword)}); err != nil {
		return Ack{}, fmt.Errorf("authkit: change password update: %w", err)
	}

	e.metrics.inc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, AuditFlowChangePassword, true, userID, nil, nil)
	return Ack{Message: MsgChangePasswordSuccess}, nil
}
