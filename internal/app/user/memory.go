package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It backs handler tests and
// follows the same uniqueness and ordering rules as PostgresRepository.
type MemoryRepository struct {
	mu    sync.RWMutex
	users []*User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (m *MemoryRepository) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.taken(func(x *User) string { return x.Username }, u.Username, uuid.Nil) {
		return ErrUsernameTaken
	}
	if m.taken(func(x *User) string { return x.Email }, u.Email, uuid.Nil) {
		return ErrEmailTaken
	}

	now := m.now()
	u.DateJoined = now
	u.UpdatedAt = now

	stored := *u
	m.users = append(m.users, &stored)
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if u := m.find(id); u != nil {
		c := *u
		return &c, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) UsernameExists(_ context.Context, username string, except uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taken(func(x *User) string { return x.Username }, username, except), nil
}

func (m *MemoryRepository) EmailExists(_ context.Context, email string, except uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taken(func(x *User) string { return x.Email }, email, except), nil
}

func (m *MemoryRepository) ListExcept(_ context.Context, id uuid.UUID) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []User
	for _, u := range m.users {
		if u.ID != id {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *MemoryRepository) Update(_ context.Context, id uuid.UUID, p Patch) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.find(id)
	if u == nil {
		return nil, ErrNotFound
	}

	if p.Username != nil && m.taken(func(x *User) string { return x.Username }, *p.Username, id) {
		return nil, ErrUsernameTaken
	}
	if p.Email != nil && m.taken(func(x *User) string { return x.Email }, *p.Email, id) {
		return nil, ErrEmailTaken
	}

	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if !p.Empty() {
		u.UpdatedAt = m.now()
	}

	c := *u
	return &c, nil
}

func (m *MemoryRepository) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u := m.find(id); u != nil {
		u.LastLogin = &at
	}
	return nil
}

// Len returns the number of stored users.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

func (m *MemoryRepository) find(id uuid.UUID) *User {
	for _, u := range m.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (m *MemoryRepository) taken(field func(*User) string, value string, except uuid.UUID) bool {
	for _, u := range m.users {
		if u.ID != except && strings.EqualFold(field(u), value) {
			return true
		}
	}
	return false
}
