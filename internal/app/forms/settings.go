package forms

import (
	"context"
	"net/http"
	"strings"

	"talkroom/internal/app/storage"
	"talkroom/internal/app/user"
)

// AvatarSetting replaces the avatar. Submitting no file keeps the current one.
type AvatarSetting struct {
	Icon *storage.Image `form:"-"`

	bindErrs Errors
}

func (f *AvatarSetting) Bind(r *http.Request) {
	f.bindErrs = Errors{}
	f.Icon = bindImage(r, "icon", f.bindErrs)
}

func (f *AvatarSetting) Validate() Errors {
	errs := Errors{}
	merge(errs, f.bindErrs)
	return errs
}

// EmailSetting changes the email address of current.
type EmailSetting struct {
	Email string `form:"email" validate:"required,max=254,email"`
}

func (f *EmailSetting) Bind(r *http.Request) {
	f.Email = strings.TrimSpace(r.PostFormValue("email"))
}

func (f *EmailSetting) Validate(ctx context.Context, chk Checker, current *user.User) (Errors, error) {
	errs := checkStruct(f)
	if err := checkUnique(ctx, errs, chk, "", f.Email, current.ID); err != nil {
		return nil, err
	}
	return errs, nil
}

// UsernameSetting renames current.
type UsernameSetting struct {
	Username string `form:"username" validate:"required,max=150,username"`
}

func (f *UsernameSetting) Bind(r *http.Request) {
	f.Username = strings.TrimSpace(r.PostFormValue("username"))
}

func (f *UsernameSetting) Validate(ctx context.Context, chk Checker, current *user.User) (Errors, error) {
	errs := checkStruct(f)
	if err := checkUnique(ctx, errs, chk, f.Username, "", current.ID); err != nil {
		return nil, err
	}
	return errs, nil
}

// PasswordChecker verifies a raw password against a stored hash.
type PasswordChecker interface {
	CheckPassword(u *user.User, raw string) bool
}

// PasswordChange sets a new password after confirming the old one.
type PasswordChange struct {
	OldPassword  string `form:"old_password" validate:"required"`
	NewPassword1 string `form:"new_password1" validate:"required"`
	NewPassword2 string `form:"new_password2" validate:"required"`
}

func (f *PasswordChange) Bind(r *http.Request) {
	f.OldPassword = r.PostFormValue("old_password")
	f.NewPassword1 = r.PostFormValue("new_password1")
	f.NewPassword2 = r.PostFormValue("new_password2")
}

func (f *PasswordChange) Validate(pw PasswordChecker, current *user.User) Errors {
	errs := checkStruct(f)

	if f.OldPassword != "" && !pw.CheckPassword(current, f.OldPassword) {
		errs.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}

	checkNewPassword(errs, "new_password1", "new_password2", f.NewPassword1, f.NewPassword2, current.Username)
	return errs
}
