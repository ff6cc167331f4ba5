package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string, except uuid.UUID) (bool, error)
	EmailExists(ctx context.Context, email string, except uuid.UUID) (bool, error)
	// ListExcept returns every user but id, oldest account first.
	ListExcept(ctx context.Context, id uuid.UUID) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
