/*
Package user is the identity store: user records, credential hashing and
authentication.
*/
package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultAvatar is the storage key of the placeholder shown until a user uploads an image.
const DefaultAvatar = "images/noimage.png"

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactive           = errors.New("account is inactive")
	ErrPasswordTooLong    = errors.New("password is too long")
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string

	// Avatar is a storage key, resolved to a URL by the storage service.
	Avatar string

	IsActive    bool
	IsStaff     bool
	IsSuperuser bool

	DateJoined time.Time
	UpdatedAt  time.Time
	LastLogin  *time.Time
}

// HasCustomAvatar reports whether the user replaced the placeholder.
func (u *User) HasCustomAvatar() bool {
	return u.Avatar != "" && u.Avatar != DefaultAvatar
}

// Patch lists the columns an update writes. Nil fields are left untouched.
type Patch struct {
	Username     *string
	Email        *string
	Avatar       *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Avatar == nil && p.PasswordHash == nil
}
