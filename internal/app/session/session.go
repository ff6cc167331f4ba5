/*
Package session binds browser requests to authenticated users.

A session is a server-side record keyed by a random token. The browser holds a
signed cookie naming that record; the record decides validity, so deleting it
logs the browser out even while the cookie itself has not expired.
*/
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session is an authenticated login.
type Session struct {
	ID        string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes every session of userID except the one named keep.
	DeleteByUser(ctx context.Context, userID uuid.UUID, keep string) error
	// DeleteExpired purges sessions that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
