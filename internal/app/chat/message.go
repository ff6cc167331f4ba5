/*
Package chat is the message store: direct messages between two users, the
conversations derived from them, and the friends-list summary built on top.

A conversation between A and B is every message sent from A to B or from B to
A. It is never stored on its own; every read recomputes it from the messages
table.
*/
package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxBodyLength is the maximum message length in characters.
const MaxBodyLength = 500

var (
	ErrEmptyBody   = errors.New("message body is empty")
	ErrBodyTooLong = fmt.Errorf("message body exceeds %d characters", MaxBodyLength)
)

// Message is a single directed message.
type Message struct {
	ID        int64
	FromID    uuid.UUID
	ToID      uuid.UUID
	Body      string
	CreatedAt time.Time
}

// ValidationError reports a body rejected by Send.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Between reports whether m belongs to the conversation of a and b.
func (m *Message) Between(a, b uuid.UUID) bool {
	return (m.FromID == a && m.ToID == b) || (m.FromID == b && m.ToID == a)
}

// before orders messages by creation time, then by id.
func before(x, y *Message) bool {
	if !x.CreatedAt.Equal(y.CreatedAt) {
		return x.CreatedAt.Before(y.CreatedAt)
	}
	return x.ID < y.ID
}
