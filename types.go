package authkit

import (
	"context"
	"time"

	"github.com/chirpd/authkit/identity"
)

// VerifyStatus is the account verification state machine.
type VerifyStatus uint8

const (
	// Unverified accounts have registered but not confirmed their email.
	Unverified VerifyStatus = iota
	// Verified accounts have confirmed their email.
	Verified
	// Banned accounts are locked out of authentication.
	Banned
)

// String implements fmt.Stringer for logs and audit metadata.
func (v VerifyStatus) String() string {
	switch v {
	case Unverified:
		return "unverified"
	case Verified:
		return "verified"
	case Banned:
		return "banned"
	default:
		return "unknown"
	}
}

// UserAccount is the engine's view of one account. Password holds the
// peppered digest, never the plaintext. EmailVerifyToken and
// ForgotPasswordToken hold the account's currently valid single-purpose
// tokens; empty means none outstanding.
type UserAccount struct {
	ID          string
	Email       string
	Username    string
	Name        string
	Password    string
	DateOfBirth time.Time

	Bio        string
	Location   string
	Website    string
	Avatar     string
	CoverPhoto string

	Verify              VerifyStatus
	EmailVerifyToken    string
	ForgotPasswordToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserDirectory is the account persistence the host application provides.
// Lookups return (nil, nil) when no account matches; errors are reserved
// for storage failures. Implementations must enforce email and username
// uniqueness and stamp UpdatedAt on every UpdateFields call.
//
// UpdateFields keys are the snake_case account field names: "name",
// "password", "verify", "email_verify_token", "forgot_password_token",
// "date_of_birth", "bio", "location", "website", "username", "avatar",
// "cover_photo".
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*UserAccount, error)
	FindByEmail(ctx context.Context, email string) (*UserAccount, error)
	FindByEmailAndPasswordHash(ctx context.Context, email, digest string) (*UserAccount, error)
	FindByUsername(ctx context.Context, username string) (*UserAccount, error)
	Insert(ctx context.Context, account *UserAccount) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}

// Notifier delivers account emails. Delivery is best-effort: the engine
// logs failures and completes the flow regardless.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, address, token string) error
	SendPasswordResetEmail(ctx context.Context, address, token string) error
}

// IdentityProvider abstracts an OAuth provider for the OAuth flow.
// identity.Google is the production implementation.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (identity.Tokens, error)
	FetchProfile(ctx context.Context, tokens identity.Tokens) (identity.Profile, error)
}

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterInput is the validated input to Register. DateOfBirth is the
// RFC 3339 string the register schema already checked.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	DateOfBirth     string
}

// VerifyEmailResult distinguishes a first verification, which issues a
// fresh token pair, from a repeat call, which is acknowledged without
// side effects.
type VerifyEmailResult struct {
	AlreadyVerified bool
	Pair            TokenPair
}

// OAuthResult is the outcome of an OAuth sign-in. NewUser reports whether
// an account was provisioned during this call.
type OAuthResult struct {
	Pair    TokenPair
	NewUser bool
	Verify  VerifyStatus
}

// ProfileUpdate is a partial profile update; empty fields are left
// unchanged.
type ProfileUpdate struct {
	Name        string
	DateOfBirth string
	Bio         string
	Location    string
	Website     string
	Username    string
	Avatar      string
	CoverPhoto  string
}

// Ack is the message-only acknowledgment returned by flows that produce
// no tokens.
type Ack struct {
	Message string `json:"message"`
}
