package authkit_test

import (
	"context"
	"errors"
	"testing"

	authkit "github.com/chirpd/authkit"
)

func TestErrorResponseSingleCause(t *testing.T) {
	status, body := authkit.ErrorResponse(authkit.ErrUserNotFound, false)
	if status != 404 {
		t.Fatalf("status = %d, want 404", status)
	}
	if body["message"] != authkit.MsgUserNotFound {
		t.Fatalf("body = %v", body)
	}
	if _, present := body["errors"]; present {
		t.Fatal("single-cause body carries field errors")
	}
}

func TestErrorResponseValidationAggregate(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.engine.RegisterSchema().Run(context.Background(), bodyRequest(map[string]string{
		"email": "bad",
	}))

	status, body := authkit.ErrorResponse(err, false)
	if status != 422 {
		t.Fatalf("status = %d, want 422", status)
	}
	if body["message"] != authkit.MsgValidationError {
		t.Fatalf("message = %v", body["message"])
	}
	fields, ok := body["errors"].(map[string]string)
	if !ok || len(fields) == 0 {
		t.Fatalf("errors = %v", body["errors"])
	}
}

func TestErrorResponseUnknownError(t *testing.T) {
	cause := errors.New("pg: connection refused")

	status, body := authkit.ErrorResponse(cause, false)
	if status != 500 {
		t.Fatalf("status = %d, want 500", status)
	}
	if body["message"] != cause.Error() {
		t.Fatalf("development body = %v", body)
	}

	// Production hides internal detail.
	_, body = authkit.ErrorResponse(cause, true)
	if body["message"] != authkit.MsgInternalServerError {
		t.Fatalf("production body = %v", body)
	}
}

func TestStatusOf(t *testing.T) {
	if got := authkit.StatusOf(authkit.ErrTokenRevoked); got != 401 {
		t.Fatalf("StatusOf revoked = %d, want 401", got)
	}
	if got := authkit.StatusOf(errors.New("boom")); got != 500 {
		t.Fatalf("StatusOf unknown = %d, want 500", got)
	}
}
