package authkit_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authkit "github.com/chirpd/authkit"
	"github.com/chirpd/authkit/identity"
	"github.com/chirpd/authkit/token"
)

var (
	testAccessSecret         = bytes.Repeat([]byte("a"), 32)
	testRefreshSecret        = bytes.Repeat([]byte("b"), 32)
	testEmailVerifySecret    = bytes.Repeat([]byte("c"), 32)
	testForgotPasswordSecret = bytes.Repeat([]byte("d"), 32)
	testPepper               = bytes.Repeat([]byte("p"), 16)
)

// memoryDirectory is an in-memory UserDirectory for tests. It returns
// copies so engine-held accounts never alias stored state.
type memoryDirectory struct {
	mu   sync.Mutex
	byID map[string]*authkit.UserAccount
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{byID: make(map[string]*authkit.UserAccount)}
}

func copyAccount(a *authkit.UserAccount) *authkit.UserAccount {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

func (d *memoryDirectory) FindByID(ctx context.Context, id string) (*authkit.UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyAccount(d.byID[id]), nil
}

func (d *memoryDirectory) FindByEmail(ctx context.Context, email string) (*authkit.UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.byID {
		if a.Email == email {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (d *memoryDirectory) FindByEmailAndPasswordHash(ctx context.Context, email, digest string) (*authkit.UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.byID {
		if a.Email == email && a.Password == digest {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (d *memoryDirectory) FindByUsername(ctx context.Context, username string) (*authkit.UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.byID {
		if a.Username == username {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (d *memoryDirectory) Insert(ctx context.Context, account *authkit.UserAccount) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[account.ID] = copyAccount(account)
	return nil
}

func (d *memoryDirectory) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[id]
	if !ok {
		return nil
	}
	for key, value := range fields {
		switch key {
		case "name":
			a.Name = value.(string)
		case "password":
			a.Password = value.(string)
		case "verify":
			a.Verify = value.(authkit.VerifyStatus)
		case "email_verify_token":
			a.EmailVerifyToken = value.(string)
		case "forgot_password_token":
			a.ForgotPasswordToken = value.(string)
		case "date_of_birth":
			a.DateOfBirth = value.(time.Time)
		case "bio":
			a.Bio = value.(string)
		case "location":
			a.Location = value.(string)
		case "website":
			a.Website = value.(string)
		case "username":
			a.Username = value.(string)
		case "avatar":
			a.Avatar = value.(string)
		case "cover_photo":
			a.CoverPhoto = value.(string)
		}
	}
	a.UpdatedAt = time.Now()
	return nil
}

// mustGet reads an account by email straight from the store for
// assertions on fields the public API hides.
func (d *memoryDirectory) mustGet(t *testing.T, email string) *authkit.UserAccount {
	t.Helper()
	a, _ := d.FindByEmail(context.Background(), email)
	if a == nil {
		t.Fatalf("account %s not in directory", email)
	}
	return a
}

type sentEmail struct {
	Kind    string
	Address string
	Token   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	fail error
}

func (n *recordingNotifier) SendVerificationEmail(ctx context.Context, address, tok string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, sentEmail{Kind: "verify", Address: address, Token: tok})
	return nil
}

func (n *recordingNotifier) SendPasswordResetEmail(ctx context.Context, address, tok string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, sentEmail{Kind: "reset", Address: address, Token: tok})
	return nil
}

func (n *recordingNotifier) lastOfKind(kind string) (sentEmail, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i], true
		}
	}
	return sentEmail{}, false
}

type fakeProvider struct {
	profile     identity.Profile
	exchangeErr error
	profileErr  error
}

func (p *fakeProvider) ExchangeCode(ctx context.Context, code string) (identity.Tokens, error) {
	if p.exchangeErr != nil {
		return identity.Tokens{}, p.exchangeErr
	}
	return identity.Tokens{AccessToken: "provider-access", IDToken: "provider-id"}, nil
}

func (p *fakeProvider) FetchProfile(ctx context.Context, tokens identity.Tokens) (identity.Profile, error) {
	if p.profileErr != nil {
		return identity.Profile{}, p.profileErr
	}
	return p.profile, nil
}

type testEnv struct {
	engine    *authkit.Engine
	directory *memoryDirectory
	notifier  *recordingNotifier
	provider  *fakeProvider
	redis     *miniredis.Miniredis
}

func newTestEnv(t *testing.T, mutate func(b *authkit.Builder)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	directory := newMemoryDirectory()
	notifier := &recordingNotifier{}
	provider := &fakeProvider{}

	builder := authkit.New().
		WithRedis(client).
		WithUserDirectory(directory).
		WithNotifier(notifier).
		WithIdentityProvider(provider).
		WithTokenSecrets(testAccessSecret, testRefreshSecret, testEmailVerifySecret, testForgotPasswordSecret).
		WithPepper(testPepper)
	if mutate != nil {
		mutate(builder)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, directory: directory, notifier: notifier, provider: provider, redis: mr}
}

// testCodec mirrors the engine's codec so tests can craft and decode
// tokens directly.
func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(
		token.Secrets{
			Access:         testAccessSecret,
			Refresh:        testRefreshSecret,
			EmailVerify:    testEmailVerifySecret,
			ForgotPassword: testForgotPasswordSecret,
		},
		token.TTLs{
			Access:         15 * time.Minute,
			Refresh:        100 * 24 * time.Hour,
			EmailVerify:    7 * 24 * time.Hour,
			ForgotPassword: 15 * time.Minute,
		},
	)
	if err != nil {
		t.Fatalf("test codec: %v", err)
	}
	return codec
}

func validRegisterInput() authkit.RegisterInput {
	return authkit.RegisterInput{
		Name:            "Alice Doe",
		Email:           "alice@example.com",
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
		DateOfBirth:     "2000-01-02T00:00:00Z",
	}
}

func registerTestUser(t *testing.T, env *testEnv) (authkit.TokenPair, *authkit.UserAccount) {
	t.Helper()
	pair, err := env.engine.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return pair, env.directory.mustGet(t, "alice@example.com")
}

func assertUserPrefix(t *testing.T, username string) {
	t.Helper()
	if !strings.HasPrefix(username, "user") {
		t.Fatalf("default username = %q, want user<id>", username)
	}
}
