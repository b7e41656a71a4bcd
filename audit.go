package authkit

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/chirpd/authkit/internal/audit"
)

// AuditEvent is one audited flow outcome delivered to the configured sink.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the engine's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpAuditSink drops events.
type NoOpAuditSink = internalaudit.NoOpSink

// ChannelAuditSink buffers events in a channel for external forwarding.
type ChannelAuditSink = internalaudit.ChannelSink

// NewChannelAuditSink builds a channel sink with the given buffer size.
func NewChannelAuditSink(buffer int) *ChannelAuditSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterAuditSink builds a sink writing one JSON event per line.
func NewJSONWriterAuditSink(w io.Writer) AuditSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit flow names.
const (
	AuditFlowRegister                  = "register"
	AuditFlowLogin                     = "login"
	AuditFlowLogout                    = "logout"
	AuditFlowRefresh                   = "refresh"
	AuditFlowVerifyEmail               = "verify_email"
	AuditFlowResendEmailVerify         = "resend_email_verify"
	AuditFlowForgotPassword            = "forgot_password"
	AuditFlowVerifyForgotPasswordToken = "verify_forgot_password_token"
	AuditFlowResetPassword             = "reset_password"
	AuditFlowChangePassword            = "change_password"
	AuditFlowOAuth                     = "oauth"
	AuditFlowUpdateProfile             = "update_profile"
)

// emitAudit records one flow outcome. It is a no-op when audit is disabled.
func (e *Engine) emitAudit(ctx context.Context, flow string, success bool, userID string, err error, metadata map[string]string) {
	if e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		Flow:      flow,
		UserID:    userID,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	e.audit.Emit(ctx, event)
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}
