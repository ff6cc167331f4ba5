package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"talkroom/internal/pkg/logx"
)

// dummyHash is compared against when the username is unknown, so that a miss
// costs as much as a wrong password.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Registration is a validated signup.
type Registration struct {
	Username string
	Email    string
	Password string
	Avatar   string
}

// Changes is a validated settings update. Nil fields are left untouched;
// Password is the raw new password and is hashed before it is stored.
type Changes struct {
	Username *string
	Email    *string
	Avatar   *string
	Password *string
}

// Service implements account creation, authentication and settings updates.
type Service struct {
	repo Repository
	cost int
	now  func() time.Time
}

func NewService(repo Repository, bcryptCost int) *Service {
	return &Service{repo: repo, cost: bcryptCost, now: time.Now}
}

// Register creates an active, non-staff account.
func (s *Service) Register(ctx context.Context, in Registration) (*User, error) {
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	avatar := in.Avatar
	if avatar == "" {
		avatar = DefaultAvatar
	}

	u := &User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Avatar:       avatar,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logx.Info("user registered", "user_id", u.ID.String(), "username", u.Username)
	return u, nil
}

// Authenticate checks a username/password pair and records the login time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactive
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, u.ID, now); err != nil {
		logx.Error(err, "failed to update last_login", "user_id", u.ID.String())
	} else {
		u.LastLogin = &now
	}

	return u, nil
}

// CheckPassword reports whether raw matches the stored hash.
func (s *Service) CheckPassword(u *User, raw string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(raw)) == nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Others lists every user except id in a stable order.
func (s *Service) Others(ctx context.Context, id uuid.UUID) ([]User, error) {
	return s.repo.ListExcept(ctx, id)
}

// Update persists c as one write.
func (s *Service) Update(ctx context.Context, id uuid.UUID, c Changes) (*User, error) {
	p := Patch{Username: c.Username, Email: c.Email, Avatar: c.Avatar}

	if c.Password != nil {
		hash, err := s.hash(*c.Password)
		if err != nil {
			return nil, err
		}
		p.PasswordHash = &hash
	}

	return s.repo.Update(ctx, id, p)
}

func (s *Service) hash(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	return s.repo.UsernameExists(ctx, username, except)
}

func (s *Service) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	return s.repo.EmailExists(ctx, email, except)
}
