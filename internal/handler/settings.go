package handler

import (
	"net/http"

	"talkroom/internal/app/forms"
	"talkroom/internal/app/session"
	"talkroom/internal/app/storage"
	"talkroom/internal/app/user"
)

// HandleSetting renders the settings menu.
func HandleSetting(deps *AppDeps) http.HandlerFunc {
	return staticPage(deps, tmplSetting, "Settings")
}

// HandleAvatarChange replaces the avatar of the current user. Submitting no
// file keeps the current avatar.
func HandleAvatarChange(deps *AppDeps) http.HandlerFunc {
	flow := &formFlow[forms.AvatarSetting]{
		Template: tmplAvatarChange,
		Title:    "Change avatar",
		Initial:  func(*http.Request) *forms.AvatarSetting { return &forms.AvatarSetting{} },
		Bind: func(r *http.Request) *forms.AvatarSetting {
			f := &forms.AvatarSetting{}
			f.Bind(r)
			return f
		},
		Validate: func(_ *http.Request, f *forms.AvatarSetting) (forms.Errors, error) {
			return f.Validate(), nil
		},
		Save: func(_ http.ResponseWriter, r *http.Request, f *forms.AvatarSetting) (forms.Errors, error) {
			if f.Icon == nil {
				return nil, nil
			}

			me := currentUser(r)
			key, err := storage.SaveImage(r.Context(), deps.Storage, f.Icon)
			if err != nil {
				return nil, err
			}

			if _, err := deps.Users.Update(r.Context(), me.ID, user.Changes{Avatar: &key}); err != nil {
				deleteAvatar(r.Context(), deps, key)
				return nil, err
			}

			deleteAvatar(r.Context(), deps, me.Avatar)
			return nil, nil
		},
		SuccessURL: redirectTo("/setting/avatar/done"),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		flow.serve(deps, w, r)
	}
}

// HandleEmailChange changes the email address of the current user.
func HandleEmailChange(deps *AppDeps) http.HandlerFunc {
	flow := &formFlow[forms.EmailSetting]{
		Template: tmplEmailChange,
		Title:    "Change email",
		Initial: func(r *http.Request) *forms.EmailSetting {
			return &forms.EmailSetting{Email: currentUser(r).Email}
		},
		Bind: func(r *http.Request) *forms.EmailSetting {
			f := &forms.EmailSetting{}
			f.Bind(r)
			return f
		},
		Validate: func(r *http.Request, f *forms.EmailSetting) (forms.Errors, error) {
			return f.Validate(r.Context(), deps.Users, currentUser(r))
		},
		Save: func(_ http.ResponseWriter, r *http.Request, f *forms.EmailSetting) (forms.Errors, error) {
			_, err := deps.Users.Update(r.Context(), currentUser(r).ID, user.Changes{Email: &f.Email})
			return forms.FromStoreError(err)
		},
		SuccessURL: redirectTo("/setting/email/done"),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		flow.serve(deps, w, r)
	}
}

// HandleUsernameChange renames the current user.
func HandleUsernameChange(deps *AppDeps) http.HandlerFunc {
	flow := &formFlow[forms.UsernameSetting]{
		Template: tmplUsernameChange,
		Title:    "Change username",
		Initial: func(r *http.Request) *forms.UsernameSetting {
			return &forms.UsernameSetting{Username: currentUser(r).Username}
		},
		Bind: func(r *http.Request) *forms.UsernameSetting {
			f := &forms.UsernameSetting{}
			f.Bind(r)
			return f
		},
		Validate: func(r *http.Request, f *forms.UsernameSetting) (forms.Errors, error) {
			return f.Validate(r.Context(), deps.Users, currentUser(r))
		},
		Save: func(_ http.ResponseWriter, r *http.Request, f *forms.UsernameSetting) (forms.Errors, error) {
			_, err := deps.Users.Update(r.Context(), currentUser(r).ID, user.Changes{Username: &f.Username})
			return forms.FromStoreError(err)
		},
		SuccessURL: redirectTo("/setting/username/done"),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		flow.serve(deps, w, r)
	}
}

// HandlePasswordChange sets a new password. The current session stays valid;
// every other session of the user is revoked.
func HandlePasswordChange(deps *AppDeps) http.HandlerFunc {
	flow := &formFlow[forms.PasswordChange]{
		Template: tmplPasswordChange,
		Title:    "Change password",
		Initial:  func(*http.Request) *forms.PasswordChange { return &forms.PasswordChange{} },
		Bind: func(r *http.Request) *forms.PasswordChange {
			f := &forms.PasswordChange{}
			f.Bind(r)
			return f
		},
		Validate: func(r *http.Request, f *forms.PasswordChange) (forms.Errors, error) {
			return f.Validate(deps.Users, currentUser(r)), nil
		},
		Save: func(_ http.ResponseWriter, r *http.Request, f *forms.PasswordChange) (forms.Errors, error) {
			me := currentUser(r)
			if _, err := deps.Users.Update(r.Context(), me.ID, user.Changes{Password: &f.NewPassword2}); err != nil {
				return forms.FromPasswordError(err, "new_password2")
			}

			keep := ""
			if s := session.CurrentSession(r.Context()); s != nil {
				keep = s.ID
			}
			return nil, deps.Sessions.RevokeOthers(r.Context(), me.ID, keep)
		},
		SuccessURL: redirectTo("/setting/password/done"),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		flow.serve(deps, w, r)
	}
}
