package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps messages in process memory for tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	messages []Message
	nextID   int64
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

// SetClock replaces the timestamp source used by Create.
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryRepository) Create(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	msg.ID = m.nextID
	msg.CreatedAt = m.now()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *MemoryRepository) Conversation(_ context.Context, a, b uuid.UUID) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Message
	for i := range m.messages {
		if m.messages[i].Between(a, b) {
			out = append(out, m.messages[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return before(&out[i], &out[j]) })
	return out, nil
}

func (m *MemoryRepository) Latest(ctx context.Context, a, b uuid.UUID) (*Message, error) {
	conv, err := m.Conversation(ctx, a, b)
	if err != nil || len(conv) == 0 {
		return nil, err
	}
	last := conv[len(conv)-1]
	return &last, nil
}

// Len returns the number of stored messages.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
