package forms

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"talkroom/internal/app/storage"
	"talkroom/internal/app/user"
)

// Signup creates an account.
type Signup struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,max=254,email"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required"`

	// Icon is the optional avatar upload, set by Bind once it passed validation.
	Icon *storage.Image `form:"-"`

	bindErrs Errors
}

func (f *Signup) Bind(r *http.Request) {
	f.Username = strings.TrimSpace(r.PostFormValue("username"))
	f.Email = strings.TrimSpace(r.PostFormValue("email"))
	f.Password1 = r.PostFormValue("password1")
	f.Password2 = r.PostFormValue("password2")

	f.bindErrs = Errors{}
	f.Icon = bindImage(r, "icon", f.bindErrs)
}

func (f *Signup) Validate(ctx context.Context, chk Checker) (Errors, error) {
	errs := checkStruct(f)
	merge(errs, f.bindErrs)

	checkNewPassword(errs, "password1", "password2", f.Password1, f.Password2, f.Username)

	if err := checkUnique(ctx, errs, chk, f.Username, f.Email, uuid.Nil); err != nil {
		return nil, err
	}
	return errs, nil
}

// Authenticator checks credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
}

// Login checks a username and password.
type Login struct {
	Username string `form:"username" validate:"required,max=150"`
	Password string `form:"password" validate:"required"`

	// User is the authenticated account after a successful Validate.
	User *user.User `form:"-"`

	// Inactive is set when the credentials matched a deactivated account.
	Inactive bool `form:"-"`
}

func (f *Login) Bind(r *http.Request) {
	f.Username = strings.TrimSpace(r.PostFormValue("username"))
	f.Password = r.PostFormValue("password")
}

func (f *Login) Validate(ctx context.Context, auth Authenticator) (Errors, error) {
	errs := checkStruct(f)
	if errs.Any() {
		return errs, nil
	}

	u, err := auth.Authenticate(ctx, f.Username, f.Password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		errs.Add(NonField, "Please enter a correct username and password. Note that both fields may be case-sensitive.")
	case errors.Is(err, user.ErrInactive):
		f.Inactive = true
		errs.Add(NonField, "This account is inactive.")
	case err != nil:
		return nil, err
	default:
		f.User = u
	}
	return errs, nil
}

func merge(dst, src Errors) {
	for field, msgs := range src {
		dst[field] = append(dst[field], msgs...)
	}
}
