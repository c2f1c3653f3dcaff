// Package staff defines store staff identities used for authenticated,
// audited operations. Every credit mutation records the acting staff member.
package staff

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no staff member exists for a username.
var ErrNotFound = errors.New("staff not found")

// Roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Staff is a store employee allowed to operate the counter APIs.
type Staff struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
}

// Repository provides staff lookup for authentication.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*Staff, error)
	Create(ctx context.Context, s *Staff) error
}
