package authkit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	authkit "github.com/chirpd/authkit"
)

func TestGetMeStripsCredentialMaterial(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, user := registerTestUser(t, env)

	me, err := env.engine.GetMe(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.Email != "alice@example.com" || me.Name != "Alice Doe" {
		t.Fatalf("profile mismatch: %+v", me)
	}
	if me.Password != "" || me.EmailVerifyToken != "" || me.ForgotPasswordToken != "" {
		t.Fatal("credential material leaked through GetMe")
	}
}

func TestGetMeUnknownUser(t *testing.T) {
	env := newTestEnv(t, nil)

	if _, err := env.engine.GetMe(context.Background(), "missing"); !errors.Is(err, authkit.ErrUserNotFound) {
		t.Fatalf("GetMe = %v, want ErrUserNotFound", err)
	}
}

func TestGetProfileByUsername(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, user := registerTestUser(t, env)

	profile, err := env.engine.GetProfile(ctx, user.Username)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.ID != user.ID {
		t.Fatalf("profile id = %q, want %q", profile.ID, user.ID)
	}
	if profile.Password != "" {
		t.Fatal("digest leaked through GetProfile")
	}

	if _, err := env.engine.GetProfile(ctx, "no_such_user"); !errors.Is(err, authkit.ErrUserNotFound) {
		t.Fatalf("unknown username = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, user := registerTestUser(t, env)

	updated, err := env.engine.UpdateProfile(ctx, user.ID, authkit.ProfileUpdate{
		Bio:      "gopher",
		Username: "alice_doe",
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Bio != "gopher" || updated.Username != "alice_doe" {
		t.Fatalf("update not applied: %+v", updated)
	}
	// Untouched fields survive.
	if updated.Name != "Alice Doe" || updated.Email != "alice@example.com" {
		t.Fatalf("unrelated fields changed: %+v", updated)
	}
}

func TestUpdateProfileDateOnlyBirthDate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, user := registerTestUser(t, env)

	updated, err := env.engine.UpdateProfile(ctx, user.ID, authkit.ProfileUpdate{DateOfBirth: "1995-06-15"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	want := time.Date(1995, time.June, 15, 0, 0, 0, 0, time.UTC)
	if !updated.DateOfBirth.Equal(want) {
		t.Fatalf("date of birth = %v, want %v", updated.DateOfBirth, want)
	}

	if _, err := env.engine.UpdateProfile(ctx, user.ID, authkit.ProfileUpdate{DateOfBirth: "15/06/1995"}); authkit.StatusOf(err) != 400 {
		t.Fatalf("malformed date = %v, want status 400", err)
	}
}

func TestUpdateProfileUsernameConflict(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, alice := registerTestUser(t, env)

	other := validRegisterInput()
	other.Email = "bob@example.com"
	if _, err := env.engine.Register(ctx, other); err != nil {
		t.Fatalf("register second user: %v", err)
	}
	bob := env.directory.mustGet(t, "bob@example.com")

	if _, err := env.engine.UpdateProfile(ctx, alice.ID, authkit.ProfileUpdate{Username: bob.Username}); !errors.Is(err, authkit.ErrUsernameAlreadyExists) {
		t.Fatalf("UpdateProfile = %v, want ErrUsernameAlreadyExists", err)
	}
}

func TestUpdateProfileKeepingOwnUsername(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, user := registerTestUser(t, env)

	// Re-submitting the current username is not a conflict.
	if _, err := env.engine.UpdateProfile(ctx, user.ID, authkit.ProfileUpdate{Username: user.Username, Bio: "still me"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
}
