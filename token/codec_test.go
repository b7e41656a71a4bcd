package token

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(
		Secrets{
			Access:         bytes.Repeat([]byte("a"), 32),
			Refresh:        bytes.Repeat([]byte("b"), 32),
			EmailVerify:    bytes.Repeat([]byte("c"), 32),
			ForgotPassword: bytes.Repeat([]byte("d"), 32),
		},
		TTLs{
			Access:         15 * time.Minute,
			Refresh:        24 * time.Hour,
			EmailVerify:    time.Hour,
			ForgotPassword: 15 * time.Minute,
		},
	)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := testCodec(t)

	for _, cat := range []Category{CategoryAccess, CategoryRefresh, CategoryEmailVerify, CategoryForgotPassword} {
		signed, err := codec.Sign("user-1", 1, cat)
		if err != nil {
			t.Fatalf("Sign %s: %v", cat, err)
		}
		claims, err := codec.Verify(signed, cat)
		if err != nil {
			t.Fatalf("Verify %s: %v", cat, err)
		}
		if claims.UserID != "user-1" {
			t.Fatalf("user id = %q, want user-1", claims.UserID)
		}
		if claims.TokenType != cat {
			t.Fatalf("token type = %v, want %v", claims.TokenType, cat)
		}
		if claims.Verify != 1 {
			t.Fatalf("verify = %d, want 1", claims.Verify)
		}
	}
}

func TestVerifyRejectsCrossCategory(t *testing.T) {
	codec := testCodec(t)

	signed, err := codec.Sign("user-1", 0, CategoryAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	for _, cat := range []Category{CategoryRefresh, CategoryEmailVerify, CategoryForgotPassword} {
		if _, err := codec.Verify(signed, cat); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Verify under %s = %v, want ErrTokenInvalid", cat, err)
		}
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	codec := testCodec(t)

	signed, err := codec.SignWithExpiry("user-1", 0, CategoryRefresh, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("SignWithExpiry: %v", err)
	}
	if _, err := codec.Verify(signed, CategoryRefresh); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	codec := testCodec(t)

	signed, err := codec.Sign("user-1", 0, CategoryAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tampered := signed[:len(signed)-2] + "xx"
	if _, err := codec.Verify(tampered, CategoryAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify tampered = %v, want ErrTokenInvalid", err)
	}
	if _, err := codec.Verify("not-a-token", CategoryAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify garbage = %v, want ErrTokenInvalid", err)
	}
}

func TestSignWithExpiryHonorsAbsoluteExpiry(t *testing.T) {
	codec := testCodec(t)

	exp := time.Now().Add(42 * time.Minute).Truncate(time.Second)
	signed, err := codec.SignWithExpiry("user-1", 0, CategoryRefresh, exp)
	if err != nil {
		t.Fatalf("SignWithExpiry: %v", err)
	}
	claims, err := codec.Verify(signed, CategoryRefresh)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(exp) {
		t.Fatalf("exp = %v, want %v", claims.ExpiresAt.Time, exp)
	}
}

func TestNewCodecRejectsSharedSecrets(t *testing.T) {
	shared := bytes.Repeat([]byte("s"), 32)
	_, err := NewCodec(
		Secrets{Access: shared, Refresh: shared, EmailVerify: bytes.Repeat([]byte("c"), 32), ForgotPassword: bytes.Repeat([]byte("d"), 32)},
		TTLs{Access: time.Minute, Refresh: time.Hour, EmailVerify: time.Hour, ForgotPassword: time.Minute},
	)
	if err == nil {
		t.Fatal("NewCodec accepted duplicate secrets")
	}
}

func TestNewCodecRejectsMissingSecretOrTTL(t *testing.T) {
	secrets := Secrets{
		Access:         bytes.Repeat([]byte("a"), 32),
		Refresh:        bytes.Repeat([]byte("b"), 32),
		EmailVerify:    bytes.Repeat([]byte("c"), 32),
		ForgotPassword: bytes.Repeat([]byte("d"), 32),
	}
	ttls := TTLs{Access: time.Minute, Refresh: time.Hour, EmailVerify: time.Hour, ForgotPassword: time.Minute}

	broken := secrets
	broken.EmailVerify = nil
	if _, err := NewCodec(broken, ttls); err == nil {
		t.Fatal("NewCodec accepted missing secret")
	}

	badTTL := ttls
	badTTL.Refresh = 0
	if _, err := NewCodec(secrets, badTTL); err == nil {
		t.Fatal("NewCodec accepted zero ttl")
	}
}
