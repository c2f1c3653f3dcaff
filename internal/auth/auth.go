// Package auth issues and verifies staff access tokens. Tokens are HS256
// JWTs carrying the staff username as subject and the role as a custom
// claim; passwords are stored as bcrypt hashes.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranakart/kirana-backend/internal/domain/staff"
)

var (
	// ErrInvalidCredentials is returned on any login failure: unknown user,
	// wrong password, or deactivated account. The causes are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Actor identifies an authenticated staff member on a request.
type Actor struct {
	Username string
	Role     string
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string
	Role        string
	ExpiresAt   time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Authenticator signs and verifies staff tokens.
type Authenticator struct {
	staff  staff.Repository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator with the given signing secret
// and token lifetime.
func NewAuthenticator(repo staff.Repository, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Authenticator{
		staff:  repo,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Login verifies the staff member's password and issues a signed token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Token, error) {
	s, err := a.staff.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "look up staff")
	}
	if !s.Active {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := a.now().Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Username,
			Issuer:    "kirana-backend",
			IssuedAt:  jwt.NewNumericDate(a.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: s.Role,
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return nil, errors.Wrap(err, "sign token")
	}

	return &Token{AccessToken: signed, Role: s.Role, ExpiresAt: expiresAt}, nil
}

// Verify parses and validates a token string, returning the actor it
// identifies.
func (a *Authenticator) Verify(tokenStr string) (Actor, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid || c.Subject == "" {
		return Actor{}, ErrInvalidToken
	}
	return Actor{Username: c.Subject, Role: c.Role}, nil
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}
