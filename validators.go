package authkit

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/chirpd/authkit/session"
	"github.com/chirpd/authkit/token"
	"github.com/chirpd/authkit/validate"
)

// Keys under which schema rules attach derived state to the Checked
// accumulator.
const (
	checkedAuthorization       = "decoded_authorization"
	checkedRefreshToken        = "decoded_refresh_token"
	checkedEmailVerifyToken    = "decoded_email_verify_token"
	checkedForgotPasswordToken = "decoded_forgot_password_token"
	checkedUser                = "user"
)

// DecodedAuthorization reads the access-token claims attached by
// AccessTokenSchema.
func DecodedAuthorization(chk *validate.Checked) (*token.Claims, bool) {
	return checkedClaims(chk, checkedAuthorization)
}

// DecodedRefreshToken reads the refresh-token claims attached by
// RefreshTokenSchema.
func DecodedRefreshToken(chk *validate.Checked) (*token.Claims, bool) {
	return checkedClaims(chk, checkedRefreshToken)
}

// DecodedEmailVerifyToken reads the claims attached by
// EmailVerifyTokenSchema.
func DecodedEmailVerifyToken(chk *validate.Checked) (*token.Claims, bool) {
	return checkedClaims(chk, checkedEmailVerifyToken)
}

// DecodedForgotPasswordToken reads the claims attached by
// VerifyForgotPasswordTokenSchema.
func DecodedForgotPasswordToken(chk *validate.Checked) (*token.Claims, bool) {
	return checkedClaims(chk, checkedForgotPasswordToken)
}

// ResolvedUser reads the account a schema rule resolved during the run.
func ResolvedUser(chk *validate.Checked) (*UserAccount, bool) {
	v, ok := chk.Value(checkedUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*UserAccount)
	return user, ok
}

func checkedClaims(chk *validate.Checked, key string) (*token.Claims, bool) {
	v, ok := chk.Value(key)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.Claims)
	return claims, ok
}

// RequireVerifiedUser is the guard in front of verified-only features: the
// caller's access-token claims must carry Verified status.
func RequireVerifiedUser(chk *validate.Checked) error {
	claims, ok := DecodedAuthorization(chk)
	if !ok {
		return ErrAccessTokenRequired
	}
	if VerifyStatus(claims.Verify) != Verified {
		return ErrUserNotVerified
	}
	return nil
}

var usernameShape = regexp.MustCompile(`^[A-Za-z0-9_]{4,15}$`)
var allDigits = regexp.MustCompile(`^[0-9]+$`)

func passwordRules(requiredMsg, lengthMsg, strongMsg string) []validate.Rule {
	return []validate.Rule{
		validate.NotEmpty(requiredMsg),
		validate.Length(8, 50, lengthMsg),
		validate.StrongPassword(strongMsg),
	}
}

func confirmPasswordRules() []validate.Rule {
	return []validate.Rule{
		validate.NotEmpty(MsgConfirmPasswordIsRequired),
		validate.Length(8, 50, MsgConfirmPasswordLength),
		validate.StrongPassword(MsgConfirmPasswordMustBeStrong),
		validate.EqualsField(validate.LocationBody, "password", MsgConfirmPasswordMustMatch),
	}
}

func emailRules() []validate.Rule {
	return []validate.Rule{
		validate.NotEmpty(MsgEmailIsRequired),
		validate.IsEmail(MsgEmailIsInvalid),
	}
}

// storageFailure hides storage detail behind a plain 500 so rule failures
// never leak driver errors into responses.
func storageFailure() *Error {
	return NewError(http.StatusInternalServerError, MsgInternalServerError)
}

// LoginSchema validates the login request. A credentials mismatch is
// reported as a field failure on email, indistinguishable from any other
// invalid input, and the matched account is attached for the handler.
func (e *Engine) LoginSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name: "email",
			In:   validate.LocationBody,
			Trim: true,
			Rules: append(emailRules(), func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
				plain, _ := req.Value(validate.LocationBody, "password")
				user, err := e.directory.FindByEmailAndPasswordHash(ctx, value, e.hasher.Hash(plain))
				if err != nil {
					return storageFailure()
				}
				if user == nil {
					return validationFailure(MsgEmailOrPasswordIncorrect)
				}
				chk.Set(checkedUser, user)
				return nil
			}),
		},
		{
			Name:  "password",
			In:    validate.LocationBody,
			Rules: passwordRules(MsgPasswordIsRequired, MsgPasswordLength, MsgPasswordMustBeStrong),
		},
	}}
}

// RegisterSchema validates the register request, including email
// availability.
func (e *Engine) RegisterSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name: "name",
			In:   validate.LocationBody,
			Trim: true,
			Rules: []validate.Rule{
				validate.NotEmpty(MsgNameIsRequired),
				validate.Length(1, 100, MsgNameLength),
			},
		},
		{
			Name: "email",
			In:   validate.LocationBody,
			Trim: true,
			Rules: append(emailRules(), func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
				existing, err := e.directory.FindByEmail(ctx, value)
				if err != nil {
					return storageFailure()
				}
				if existing != nil {
					return validationFailure(MsgEmailAlreadyExists)
				}
				return nil
			}),
		},
		{
			Name:  "password",
			In:    validate.LocationBody,
			Rules: passwordRules(MsgPasswordIsRequired, MsgPasswordLength, MsgPasswordMustBeStrong),
		},
		{
			Name:  "confirm_password",
			In:    validate.LocationBody,
			Rules: confirmPasswordRules(),
		},
		{
			Name:  "date_of_birth",
			In:    validate.LocationBody,
			Rules: []validate.Rule{validate.ISO8601(MsgDateOfBirthMustBeISO8601)},
		},
	}}
}

// AccessTokenSchema validates the Authorization header and attaches the
// decoded access-token claims. A missing or malformed bearer token fails
// with 401 immediately, bypassing aggregation.
func (e *Engine) AccessTokenSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name: "Authorization",
			In:   validate.LocationHeaders,
			Rules: []validate.Rule{func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
				bearer, ok := strings.CutPrefix(value, "Bearer ")
				if !ok || bearer == "" {
					return ErrAccessTokenRequired
				}
				claims, err := e.codec.Verify(bearer, token.CategoryAccess)
				if err != nil {
					return mapTokenError(err)
				}
				chk.Set(checkedAuthorization, claims)
				return nil
			}},
		},
	}}
}

// RefreshTokenSchema validates the refresh_token body field: signature,
// category, and session-record liveness. Failures are 401 and immediate.
func (e *Engine) RefreshTokenSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name: "refresh_token",
			In:   validate.LocationBody,
			Rules: []validate.Rule{func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
				if value == "" {
					return ErrRefreshTokenRequired
				}
				claims, err := e.codec.Verify(value, token.CategoryRefresh)
				if err != nil {
					return mapTokenError(err)
				}
				if _, err := e.sessions.FindByToken(ctx, value); err != nil {
					if errors.Is(err, session.ErrNotFound) {
						return ErrTokenRevoked
					}
					// A store outage is not evidence of reuse.
					return storageFailure()
				}
				chk.Set(checkedRefreshToken, claims)
				return nil
			}},
		},
	}}
}

// EmailVerifyTokenSchema validates the email_verify_token body field and
// attaches its claims.
func (e *Engine) EmailVerifyTokenSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name: "email_verify_token",
			In:   validate.LocationBody,
			Rules: []validate.Rule{func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
				if value == "" {
					return ErrEmailVerifyTokenRequired
				}
				claims, err := e.codec.Verify(value, token.CategoryEmailVerify)
				if err != nil {
					return mapTokenError(err)
				}
				chk.Set(checkedEmailVerifyToken, claims)
				return nil
			}},
		},
	}}
}

// ForgotPasswordSchema validates the forgot-password request and resolves
// the account; an unknown email fails with 404 immediately.
func (e *Engine) ForgotPasswordSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name: "email",
			In:   validate.LocationBody,
			Trim: true,
			Rules: append(emailRules(), func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
				user, err := e.directory.FindByEmail(ctx, value)
				if err != nil {
					return storageFailure()
				}
				if user == nil {
					return ErrUserNotFound
				}
				chk.Set(checkedUser, user)
				return nil
			}),
		},
	}}
}

// forgotPasswordTokenRule checks the presented reset token against the
// account's stored one and attaches the claims and account.
func (e *Engine) forgotPasswordTokenRule() validate.Rule {
	return func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
		if value == "" {
			return ErrForgotPasswordTokenRequired
		}
		claims, err := e.codec.Verify(value, token.CategoryForgotPassword)
		if err != nil {
			return mapTokenError(err)
		}
		user, err := e.directory.FindByID(ctx, claims.UserID)
		if err != nil {
			return storageFailure()
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.ForgotPasswordToken != value {
			return ErrForgotPasswordTokenIncorrect
		}
		chk.Set(checkedForgotPasswordToken, claims)
		chk.Set(checkedUser, user)
		return nil
	}
}

// VerifyForgotPasswordTokenSchema validates the forgot_password_token body
// field against the account's currently valid token.
func (e *Engine) VerifyForgotPasswordTokenSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name:  "forgot_password_token",
			In:    validate.LocationBody,
			Rules: []validate.Rule{e.forgotPasswordTokenRule()},
		},
	}}
}

// ResetPasswordSchema validates the reset-password request: the new
// password pair plus the reset token.
func (e *Engine) ResetPasswordSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name:  "password",
			In:    validate.LocationBody,
			Rules: passwordRules(MsgPasswordIsRequired, MsgPasswordLength, MsgPasswordMustBeStrong),
		},
		{
			Name:  "confirm_password",
			In:    validate.LocationBody,
			Rules: confirmPasswordRules(),
		},
		{
			Name:  "forgot_password_token",
			In:    validate.LocationBody,
			Rules: []validate.Rule{e.forgotPasswordTokenRule()},
		},
	}}
}

// ChangePasswordSchema validates the change-password request. It must run
// with the Checked produced by AccessTokenSchema; the old password is
// checked against the caller's stored digest.
func (e *Engine) ChangePasswordSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name: "old_password",
			In:   validate.LocationBody,
			Rules: append(
				passwordRules(MsgPasswordIsRequired, MsgPasswordLength, MsgPasswordMustBeStrong),
				func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
					claims, ok := DecodedAuthorization(chk)
					if !ok {
						return ErrAccessTokenRequired
					}
					user, err := e.directory.FindByID(ctx, claims.UserID)
					if err != nil {
						return storageFailure()
					}
					if user == nil {
						return ErrUserNotFound
					}
					if !e.hasher.Match(value, user.Password) {
						return ErrOldPasswordIncorrect
					}
					return nil
				},
			),
		},
		{
			Name:  "password",
			In:    validate.LocationBody,
			Rules: passwordRules(MsgPasswordIsRequired, MsgPasswordLength, MsgPasswordMustBeStrong),
		},
		{
			Name:  "confirm_password",
			In:    validate.LocationBody,
			Rules: confirmPasswordRules(),
		},
	}}
}

// UpdateProfileSchema validates the partial profile update; every field is
// optional.
func (e *Engine) UpdateProfileSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name:     "name",
			In:       validate.LocationBody,
			Optional: true,
			Trim:     true,
			Rules:    []validate.Rule{validate.Length(1, 100, MsgNameLength)},
		},
		{
			Name:     "date_of_birth",
			In:       validate.LocationBody,
			Optional: true,
			Rules:    []validate.Rule{validate.ISO8601(MsgDateOfBirthMustBeISO8601)},
		},
		{
			Name:     "bio",
			In:       validate.LocationBody,
			Optional: true,
			Rules:    []validate.Rule{validate.Length(1, 200, MsgBioLength)},
		},
		{
			Name:     "location",
			In:       validate.LocationBody,
			Optional: true,
			Rules:    []validate.Rule{validate.Length(1, 200, MsgLocationLength)},
		},
		{
			Name:     "website",
			In:       validate.LocationBody,
			Optional: true,
			Rules:    []validate.Rule{validate.Length(1, 200, MsgWebsiteLength)},
		},
		{
			Name:     "username",
			In:       validate.LocationBody,
			Optional: true,
			Trim:     true,
			Rules: []validate.Rule{
				func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
					if !usernameShape.MatchString(value) || allDigits.MatchString(value) {
						return validationFailure(MsgUsernameInvalid)
					}
					return nil
				},
				func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
					existing, err := e.directory.FindByUsername(ctx, value)
					if err != nil {
						return storageFailure()
					}
					if existing != nil {
						return validationFailure(MsgUsernameAlreadyExists)
					}
					return nil
				},
			},
		},
		{
			Name:     "avatar",
			In:       validate.LocationBody,
			Optional: true,
			Trim:     true,
			Rules:    []validate.Rule{validate.Length(1, 400, MsgImageURLLength)},
		},
		{
			Name:     "cover_photo",
			In:       validate.LocationBody,
			Optional: true,
			Trim:     true,
			Rules:    []validate.Rule{validate.Length(1, 400, MsgImageURLLength)},
		},
	}}
}

// followTargetRule validates a follow/unfollow target account id: it must
// be a well-formed id, exist, and not be the caller itself.
func (e *Engine) followTargetRule() validate.Rule {
	return func(ctx context.Context, value string, req *validate.Request, chk *validate.Checked) error {
		if uuid.Validate(value) != nil {
			return NewError(http.StatusNotFound, MsgInvalidUserID)
		}
		target, err := e.directory.FindByID(ctx, value)
		if err != nil {
			return storageFailure()
		}
		if target == nil {
			return NewError(http.StatusNotFound, MsgFollowedUserNotFound)
		}
		if claims, ok := DecodedAuthorization(chk); ok && claims.UserID == value {
			return ErrSelfFollowForbidden
		}
		return nil
	}
}

// FollowSchema validates the follow request body. Run it with the Checked
// produced by AccessTokenSchema so the self-follow check sees the caller.
func (e *Engine) FollowSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name:  "followed_user_id",
			In:    validate.LocationBody,
			Rules: []validate.Rule{e.followTargetRule()},
		},
	}}
}

// UnfollowSchema validates the unfollow target taken from the request
// path.
func (e *Engine) UnfollowSchema() validate.Schema {
	return validate.Schema{Fields: []validate.Field{
		{
			Name:  "user_id",
			In:    validate.LocationParams,
			Rules: []validate.Rule{e.followTargetRule()},
		},
	}}
}
