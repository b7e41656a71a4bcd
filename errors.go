package authkit

import (
	"errors"
	"net/http"

	"github.com/chirpd/authkit/validate"
)

// Error is a single-cause failure with an HTTP-mapped status. Engine
// operations and validation rules that fail for exactly one reason return
// an *Error; the zero status is never used.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// StatusCode reports the HTTP status this failure maps to. It also lets
// the validation pipeline distinguish aggregatable (422) failures from
// ones that must propagate immediately.
func (e *Error) StatusCode() int { return e.Status }

// NewError builds a single-cause failure with an explicit status.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// ValidationError aggregates the first failure of every invalid field of a
// request into one 422 response. It is produced only by schema runs, never
// by engine operations.
type ValidationError = validate.Error

// Sentinel failures for the fixed error kinds the engine produces. Compare
// with errors.Is; the instances are shared and must never be mutated.
var (
	// ErrCredentialsIncorrect is returned by Login when no account matches
	// the presented email and password digest.
	ErrCredentialsIncorrect = &Error{Status: http.StatusUnauthorized, Message: MsgEmailOrPasswordIncorrect}

	// ErrEmailAlreadyExists is returned by Register when the email is taken.
	ErrEmailAlreadyExists = &Error{Status: http.StatusConflict, Message: MsgEmailAlreadyExists}

	// ErrUsernameAlreadyExists is returned by UpdateProfile when the
	// requested username belongs to another account.
	ErrUsernameAlreadyExists = &Error{Status: http.StatusConflict, Message: MsgUsernameAlreadyExists}

	// ErrTokenExpired is returned when a structurally valid token is past
	// its expiry.
	ErrTokenExpired = &Error{Status: http.StatusUnauthorized, Message: MsgTokenIsExpired}

	// ErrTokenInvalid is returned when a token fails signature or shape
	// verification for its category.
	ErrTokenInvalid = &Error{Status: http.StatusUnauthorized, Message: MsgTokenIsInvalid}

	// ErrTokenRevoked is returned by RefreshToken when the presented token
	// verifies but has no live session record: it was rotated, revoked by
	// logout, or expired out of the store.
	ErrTokenRevoked = &Error{Status: http.StatusUnauthorized, Message: MsgUsedRefreshTokenOrNotExist}

	// ErrAccessTokenRequired is returned when the Authorization header is
	// missing or carries no bearer token.
	ErrAccessTokenRequired = &Error{Status: http.StatusUnauthorized, Message: MsgAccessTokenIsRequired}

	// ErrRefreshTokenRequired is returned when the refresh_token field is
	// absent from the request body.
	ErrRefreshTokenRequired = &Error{Status: http.StatusUnauthorized, Message: MsgRefreshTokenIsRequired}

	// ErrEmailVerifyTokenRequired is returned when the email_verify_token
	// field is absent.
	ErrEmailVerifyTokenRequired = &Error{Status: http.StatusUnauthorized, Message: MsgEmailVerifyTokenIsRequired}

	// ErrForgotPasswordTokenRequired is returned when the
	// forgot_password_token field is absent.
	ErrForgotPasswordTokenRequired = &Error{Status: http.StatusUnauthorized, Message: MsgForgotPasswordTokenIsRequired}

	// ErrEmailVerifyTokenIncorrect is returned by VerifyEmail when the
	// presented token differs from the one stored on the account.
	ErrEmailVerifyTokenIncorrect = &Error{Status: http.StatusUnauthorized, Message: MsgEmailVerifyTokenIncorrect}

	// ErrForgotPasswordTokenIncorrect is returned when the presented reset
	// token is not the account's currently valid one.
	ErrForgotPasswordTokenIncorrect = &Error{Status: http.StatusUnauthorized, Message: MsgForgotPasswordTokenIncorrect}

	// ErrOldPasswordIncorrect is returned by ChangePassword when the
	// presented old password does not match the stored digest.
	ErrOldPasswordIncorrect = &Error{Status: http.StatusUnauthorized, Message: MsgOldPasswordIncorrect}

	// ErrUserNotFound is returned when an operation references an account
	// that does not exist.
	ErrUserNotFound = &Error{Status: http.StatusNotFound, Message: MsgUserNotFound}

	// ErrUserNotVerified is returned by the verified-user guard when the
	// caller's account has not completed email verification.
	ErrUserNotVerified = &Error{Status: http.StatusForbidden, Message: MsgUserNotVerified}

	// ErrUserBanned is returned when a banned account attempts to
	// authenticate or re-request verification.
	ErrUserBanned = &Error{Status: http.StatusForbidden, Message: MsgUserBanned}

	// ErrSelfFollowForbidden is returned by the follow-target rule when an
	// account targets itself.
	ErrSelfFollowForbidden = &Error{Status: http.StatusForbidden, Message: MsgCannotFollowYourself}

	// ErrOAuthEmailNotVerified is returned by OAuth when the provider
	// reports the email as unverified.
	ErrOAuthEmailNotVerified = &Error{Status: http.StatusBadRequest, Message: MsgEmailNotVerified}

	// ErrEngineClosed is returned by operations invoked after Close.
	ErrEngineClosed = &Error{Status: http.StatusInternalServerError, Message: "engine closed"}

	// ErrIdentityProviderNotConfigured is returned by OAuth when the
	// builder was not given an identity provider.
	ErrIdentityProviderNotConfigured = &Error{Status: http.StatusInternalServerError, Message: "identity provider not configured"}
)

// validationFailure builds a status-less failure for schema rules whose
// outcome should aggregate into the 422 response rather than propagate.
func validationFailure(message string) error {
	return errors.New(message)
}

// StatusOf reports the HTTP status an error maps to: 422 for validation
// aggregates, the carried status for *Error, 500 otherwise.
func StatusOf(err error) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.StatusCode()
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Status
	}
	return http.StatusInternalServerError
}

// ErrorResponse maps any error to an HTTP status and a JSON-encodable body.
// Validation aggregates serialize as {"message", "errors"}; single-cause
// failures as {"message"}. Unknown errors become 500 and, when production
// is set, the body carries a generic message instead of internal detail.
func ErrorResponse(err error, production bool) (int, map[string]any) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.StatusCode(), map[string]any{
			"message": ve.Message,
			"errors":  ve.Fields,
		}
	}

	var se *Error
	if errors.As(err, &se) {
		return se.Status, map[string]any{"message": se.Message}
	}

	message := err.Error()
	if production {
		message = MsgInternalServerError
	}
	return http.StatusInternalServerError, map[string]any{"message": message}
}
