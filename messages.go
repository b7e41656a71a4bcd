package authkit

// Canonical user-facing messages. Every error and acknowledgment the engine
// or the validation schemas produce uses one of these constants so that API
// responses stay stable across refactors.
const (
	MsgValidationError = "Validation error"

	MsgNameIsRequired     = "Name is required"
	MsgNameMustBeAString  = "Name must be a string"
	MsgNameLength         = "Name length must be from 1 to 100"
	MsgEmailAlreadyExists = "Email already exists"
	MsgEmailIsRequired    = "Email is required"
	MsgEmailIsInvalid     = "Email is invalid"

	MsgPasswordIsRequired   = "Password is required"
	MsgPasswordLength       = "Password length must be from 8 to 50"
	MsgPasswordMustBeStrong = "Password must be at least 8 characters long and contain at least 1 lowercase letter, 1 uppercase letter, 1 number, and 1 symbol"

	MsgConfirmPasswordIsRequired   = "Confirm password is required"
	MsgConfirmPasswordLength       = "Confirm password length must be from 8 to 50"
	MsgConfirmPasswordMustBeStrong = "Confirm password must be at least 8 characters long and contain at least 1 lowercase letter, 1 uppercase letter, 1 number, and 1 symbol"
	MsgConfirmPasswordMustMatch    = "Confirm password must be the same as password"

	MsgDateOfBirthMustBeISO8601 = "Date of birth must be ISO8601"

	MsgEmailOrPasswordIncorrect = "Email or password is incorrect"
	MsgLoginSuccess             = "Login success"
	MsgRegisterSuccess          = "Register success"
	MsgLogoutSuccess            = "Logout success"
	MsgRefreshTokenSuccess      = "Refresh token success"

	MsgAccessTokenIsRequired      = "Access token is required"
	MsgRefreshTokenIsRequired     = "Refresh token is required"
	MsgUsedRefreshTokenOrNotExist = "Used refresh token or not exist"
	MsgEmailVerifyTokenIsRequired = "Email verify token is required"
	MsgTokenIsExpired             = "Token is expired"
	MsgTokenIsInvalid             = "Token is invalid"

	MsgUserNotFound              = "User not found"
	MsgEmailAlreadyVerified      = "Email already verified before"
	MsgEmailVerifySuccess        = "Email verify success"
	MsgEmailVerifyTokenIncorrect = "Email verify token is incorrect"
	MsgResendVerifyEmailSuccess  = "Resend verify email success"

	MsgCheckEmailToResetPassword        = "Check email to reset password"
	MsgForgotPasswordTokenIsRequired    = "Forgot password token is required"
	MsgVerifyForgotPasswordTokenSuccess = "Verify forgot password token success"
	MsgForgotPasswordTokenIncorrect     = "Forgot password token is incorrect"
	MsgResetPasswordSuccess             = "Reset password success"

	MsgOldPasswordIncorrect  = "Old password is incorrect"
	MsgChangePasswordSuccess = "Change password success"

	MsgEmailNotVerified = "Email not verified"
	MsgUserNotVerified  = "User not verified"
	MsgUserBanned       = "User is banned"

	MsgGetMeSuccess          = "Get my profile success"
	MsgGetProfileSuccess     = "Get profile success"
	MsgUpdateMeSuccess       = "Update my profile success"
	MsgBioMustBeAString      = "Bio must be a string"
	MsgBioLength             = "Bio length must be from 1 to 200"
	MsgLocationMustBeAString = "Location must be a string"
	MsgLocationLength        = "Location length must be from 1 to 200"
	MsgWebsiteMustBeAString  = "Website must be a string"
	MsgWebsiteLength         = "Website length must be from 1 to 200"
	MsgUsernameMustBeAString = "Username must be a string"
	MsgUsernameInvalid       = "Username must be 4-15 characters long and contain only letters, numbers, underscores, not only numbers"
	MsgUsernameAlreadyExists = "Username already exists"
	MsgImageURLMustBeAString = "Image url must be a string"
	MsgImageURLLength        = "Image url length must be from 1 to 400"

	MsgFollowSuccess        = "Follow success"
	MsgInvalidUserID        = "Invalid user id"
	MsgFollowedUserNotFound = "Followed user not found"
	MsgAlreadyFollowed      = "Followed"
	MsgAlreadyUnfollowed    = "Already unfollowed"
	MsgUnfollowSuccess      = "Unfollow success"
	MsgCannotFollowYourself = "You cannot follow yourself"

	MsgInternalServerError = "Internal server error"
)
