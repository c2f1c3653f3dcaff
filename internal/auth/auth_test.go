package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranakart/kirana-backend/internal/domain/staff"
)

type staffRepoStub struct {
	members map[string]*staff.Staff
}

func (s *staffRepoStub) GetByUsername(_ context.Context, username string) (*staff.Staff, error) {
	if m, ok := s.members[username]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, staff.ErrNotFound
}

func (s *staffRepoStub) Create(_ context.Context, m *staff.Staff) error {
	s.members[m.Username] = m
	return nil
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *staffRepoStub) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &staffRepoStub{members: map[string]*staff.Staff{
		"ramesh": {ID: "stf-1", Username: "ramesh", PasswordHash: string(hash), Role: staff.RoleAdmin, Active: true},
		"gone":   {ID: "stf-2", Username: "gone", PasswordHash: string(hash), Role: staff.RoleStaff, Active: false},
	}}
	return NewAuthenticator(repo, "test-secret", time.Hour), repo
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	tok, err := a.Login(context.Background(), "ramesh", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, staff.RoleAdmin, tok.Role)
	assert.NotEmpty(t, tok.AccessToken)

	actor, err := a.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ramesh", actor.Username)
	assert.Equal(t, staff.RoleAdmin, actor.Role)
}

func TestLogin_Failures(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "s3cret"},
		{"wrong password", "ramesh", "wrong"},
		{"inactive account", "gone", "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Login(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	_, err := a.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	tok, err := a.Login(context.Background(), "ramesh", "s3cret")
	require.NoError(t, err)

	// Move the verifier's clock past the token lifetime.
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = a.Verify(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	other, _ := newTestAuthenticator(t)
	other.secret = []byte("different-secret")

	tok, err := other.Login(context.Background(), "ramesh", "s3cret")
	require.NoError(t, err)

	_, err = a.Verify(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("counter-pass")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("counter-pass")))
}
