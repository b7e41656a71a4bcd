package authkit_test

import (
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authkit "github.com/chirpd/authkit"
)

func TestConfigValidateAcceptsBaseline(t *testing.T) {
	cfg := defaultTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidateRejectsShortSecret(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Token.AccessSecret = []byte("short")
	if err := cfg.Validate(); err == nil {
		t.Fatal("short secret accepted")
	}
}

func TestConfigValidateRejectsSharedSecrets(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Token.RefreshSecret = cfg.Token.AccessSecret
	err := cfg.Validate()
	if err == nil {
		t.Fatal("shared secrets accepted")
	}
	if !strings.Contains(err.Error(), "differ") {
		t.Fatalf("error = %v", err)
	}
}

func TestConfigValidateRejectsBadTTLs(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Token.EmailVerifyTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero ttl accepted")
	}

	cfg = defaultTestConfig()
	cfg.Token.AccessTTL = cfg.Token.RefreshTTL
	if err := cfg.Validate(); err == nil {
		t.Fatal("access ttl >= refresh ttl accepted")
	}
}

func TestConfigValidateRejectsShortPepper(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Password.Pepper = []byte("tiny")
	if err := cfg.Validate(); err == nil {
		t.Fatal("short pepper accepted")
	}
}

func TestConfigValidateRejectsEmptyPrefix(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Session.RedisPrefix = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty prefix accepted")
	}
}

func TestConfigValidateProductionLimits(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Security.ProductionMode = true
	cfg.Token.AccessTTL = 2 * time.Hour
	if err := cfg.Validate(); err == nil {
		t.Fatal("production accepted a 2h access ttl")
	}

	cfg = defaultTestConfig()
	cfg.Security.ProductionMode = true
	cfg.Token.AccessTTL = 30 * time.Minute
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBuilderRequiresCollaborators(t *testing.T) {
	// No redis client.
	builder := authkit.New().
		WithTokenSecrets(testAccessSecret, testRefreshSecret, testEmailVerifySecret, testForgotPasswordSecret).
		WithPepper(testPepper).
		WithUserDirectory(newMemoryDirectory())
	if _, err := builder.Build(); err == nil {
		t.Fatal("Build without redis succeeded")
	}

	// No user directory.
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	builder = authkit.New().
		WithRedis(client).
		WithTokenSecrets(testAccessSecret, testRefreshSecret, testEmailVerifySecret, testForgotPasswordSecret).
		WithPepper(testPepper)
	if _, err := builder.Build(); err == nil {
		t.Fatal("Build without user directory succeeded")
	}
}

func TestBuilderValidatesConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	// Missing secrets must fail Build.
	builder := authkit.New().
		WithRedis(client).
		WithUserDirectory(newMemoryDirectory()).
		WithPepper(testPepper)
	if _, err := builder.Build(); err == nil {
		t.Fatal("Build with missing token secrets succeeded")
	}
}
