package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"talkroom/internal/app/user"
	"talkroom/internal/pkg/logx"
)

// UserLister enumerates every user other than the given one.
type UserLister interface {
	Others(ctx context.Context, id uuid.UUID) ([]user.User, error)
}

// Service appends messages and reads conversations.
type Service struct {
	repo  Repository
	users UserLister
}

func NewService(repo Repository, users UserLister) *Service {
	return &Service{repo: repo, users: users}
}

// NormalizeBody trims body and checks it against the length bounds.
func NormalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", &ValidationError{Field: "talk", Err: ErrEmptyBody}
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return "", &ValidationError{Field: "talk", Err: ErrBodyTooLong}
	}
	return body, nil
}

// Send appends a message from one user to another.
func (s *Service) Send(ctx context.Context, from, to uuid.UUID, body string) (*Message, error) {
	body, err := NormalizeBody(body)
	if err != nil {
		return nil, err
	}

	m := &Message{FromID: from, ToID: to, Body: body}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	logx.FromContext(ctx).Debug().
		Int64("message_id", m.ID).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("message sent")
	return m, nil
}

// Conversation returns the messages between a and b, oldest first. The
// result does not depend on argument order.
func (s *Service) Conversation(ctx context.Context, a, b uuid.UUID) ([]Message, error) {
	return s.repo.Conversation(ctx, a, b)
}

// Latest returns the newest message between a and b, or nil.
func (s *Service) Latest(ctx context.Context, a, b uuid.UUID) (*Message, error) {
	return s.repo.Latest(ctx, a, b)
}
