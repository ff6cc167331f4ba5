package chat

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists messages.
type Repository interface {
	// Create stores m and fills in its ID and CreatedAt.
	Create(ctx context.Context, m *Message) error
	// Conversation returns every message between a and b, oldest first.
	Conversation(ctx context.Context, a, b uuid.UUID) ([]Message, error)
	// Latest returns the newest message between a and b, or nil if there is none.
	Latest(ctx context.Context, a, b uuid.UUID) (*Message, error)
}
