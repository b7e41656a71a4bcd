package token

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Category scopes a token to one purpose. Signing and verification are
// always category-explicit; the category is also embedded in the claims so
// a leaked secret for one category cannot mint tokens for another.
type Category uint8

const (
	CategoryAccess Category = iota
	CategoryRefresh
	CategoryForgotPassword
	CategoryEmailVerify
)

// String implements fmt.Stringer for logs and audit metadata.
func (c Category) String() string {
	switch c {
	case CategoryAccess:
		return "access"
	case CategoryRefresh:
		return "refresh"
	case CategoryForgotPassword:
		return "forgot_password"
	case CategoryEmailVerify:
		return "email_verify"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

var categories = []Category{CategoryAccess, CategoryRefresh, CategoryForgotPassword, CategoryEmailVerify}

var (
	// ErrTokenExpired reports a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid reports a token that fails signature, method, or
	// category verification.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload carried by every token the codec issues.
type Claims struct {
	UserID    string   `json:"user_id"`
	TokenType Category `json:"token_type"`
	Verify    uint8    `json:"verify"`
	jwt.RegisteredClaims
}

// Secrets holds one HMAC key per category. All four are required and must
// be pairwise distinct.
type Secrets struct {
	Access         []byte
	Refresh        []byte
	EmailVerify    []byte
	ForgotPassword []byte
}

// TTLs holds the default lifetime per category. All four must be positive.
type TTLs struct {
	Access         time.Duration
	Refresh        time.Duration
	EmailVerify    time.Duration
	ForgotPassword time.Duration
}

// Codec signs and verifies category-scoped tokens. A Codec is immutable
// after construction and safe for concurrent use.
type Codec struct {
	secrets map[Category][]byte
	ttls    map[Category]time.Duration
	parser  *jwt.Parser
	now     func() time.Time
}

// NewCodec validates the secrets and lifetimes and builds a codec.
func NewCodec(secrets Secrets, ttls TTLs) (*Codec, error) {
	sm := map[Category][]byte{
		CategoryAccess:         secrets.Access,
		CategoryRefresh:        secrets.Refresh,
		CategoryEmailVerify:    secrets.EmailVerify,
		CategoryForgotPassword: secrets.ForgotPassword,
	}
	tm := map[Category]time.Duration{
		CategoryAccess:         ttls.Access,
		CategoryRefresh:        ttls.Refresh,
		CategoryEmailVerify:    ttls.EmailVerify,
		CategoryForgotPassword: ttls.ForgotPassword,
	}

	for _, c := range categories {
		if len(sm[c]) == 0 {
			return nil, fmt.Errorf("token: missing %s secret", c)
		}
		if tm[c] <= 0 {
			return nil, fmt.Errorf("token: non-positive %s ttl", c)
		}
	}
	for i, a := range categories {
		for _, b := range categories[i+1:] {
			if bytes.Equal(sm[a], sm[b]) {
				return nil, fmt.Errorf("token: %s and %s secrets must differ", a, b)
			}
		}
	}

	return &Codec{
		secrets: sm,
		ttls:    tm,
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		now:     time.Now,
	}, nil
}

// Sign issues a token for the category with its default lifetime.
func (c *Codec) Sign(userID string, verify uint8, cat Category) (string, error) {
	now := c.now()
	return c.sign(userID, verify, cat, now, now.Add(c.ttls[cat]))
}

// SignWithExpiry issues a token for the category with an explicit absolute
// expiry. Refresh rotation uses it to preserve the original session
// lifetime across rotations.
func (c *Codec) SignWithExpiry(userID string, verify uint8, cat Category, exp time.Time) (string, error) {
	return c.sign(userID, verify, cat, c.now(), exp)
}

func (c *Codec) sign(userID string, verify uint8, cat Category, iat, exp time.Time) (string, error) {
	secret, ok := c.secrets[cat]
	if !ok {
		return "", fmt.Errorf("token: unknown category %s", cat)
	}
	claims := &Claims{
		UserID:    userID,
		TokenType: cat,
		Verify:    verify,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("token: sign %s: %w", cat, err)
	}
	return signed, nil
}

// Verify parses and validates a token under the category's secret. Tokens
// signed for a different category fail with ErrTokenInvalid even though
// their own secret would verify them.
func (c *Codec) Verify(tokenString string, cat Category) (*Claims, error) {
	secret, ok := c.secrets[cat]
	if !ok {
		return nil, fmt.Errorf("token: unknown category %s", cat)
	}

	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims.TokenType != cat || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
