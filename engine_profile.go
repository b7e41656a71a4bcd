package authkit

import (
	"context"
	"fmt"
)

// sanitize returns a copy with credential material stripped; profile reads
// never expose digests or outstanding tokens.
func sanitize(user *UserAccount) *UserAccount {
	out := *user
	out.Password = ""
	out.EmailVerifyToken = ""
	out.ForgotPasswordToken = ""
	return &out
}

// GetMe reads the caller's own account.
func (e *Engine) GetMe(ctx context.Context, userID string) (*UserAccount, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	user, err := e.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authkit: get me lookup: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return sanitize(user), nil
}

// GetProfile reads a public profile by username.
func (e *Engine) GetProfile(ctx context.Context, username string) (*UserAccount, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	user, err := e.directory.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("authkit: get profile lookup: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return sanitize(user), nil
}

// UpdateProfile applies a partial update to the caller's account and
// returns the updated, sanitized account. Empty fields are left
// unchanged; a username that belongs to another account fails with
// Conflict.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*UserAccount, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	user, err := e.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authkit: update profile lookup: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	fields := make(map[string]any)
	if update.Name != "" {
		fields["name"] = update.Name
	}
	if update.DateOfBirth != "" {
		dob, err := parseBirthDate(update.DateOfBirth)
		if err != nil {
			return nil, NewError(400, MsgDateOfBirthMustBeISO8601)
		}
		fields["date_of_birth"] = dob
	}
	if update.Bio != "" {
		fields["bio"] = update.Bio
	}
	if update.Location != "" {
		fields["location"] = update.Location
	}
	if update.Website != "" {
		fields["website"] = update.Website
	}
	if update.Username != "" && update.Username != user.Username {
		taken, err := e.directory.FindByUsername(ctx, update.Username)
		if err != nil {
			return nil, fmt.Errorf("authkit: update profile username lookup: %w", err)
		}
		if taken != nil {
			return nil, ErrUsernameAlreadyExists
		}
		fields["username"] = update.Username
	}
	if update.Avatar != "" {
		fields["avatar"] = update.Avatar
	}
	if update.CoverPhoto != "" {
		fields["cover_photo"] = update.CoverPhoto
	}

	if len(fields) > 0 {
		if err := e.directory.UpdateFields(ctx, userID, fields); err != nil {
			return nil, fmt.Errorf("authkit: update profile: %w", err)
		}
	}

	updated, err := e.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authkit: update profile reload: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}

	e.emitAudit(ctx, AuditFlowUpdateProfile, true, userID, nil, nil)
	return sanitize(updated), nil
}
