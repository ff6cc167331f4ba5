package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"talkroom/internal/app/forms"
	"talkroom/internal/app/session"
	"talkroom/internal/app/storage"
	"talkroom/internal/app/user"
	"talkroom/internal/pkg/errs"
	"talkroom/internal/pkg/logx"
	"talkroom/internal/pkg/metrics"
	"talkroom/internal/pkg/resp"
)

const (
	loginURL         = "/login"
	loginRedirectURL = "/friends"
	logoutRedirect   = "/"
	signupRedirect   = "/"
)

// requireLogin sends anonymous visitors to the login page, remembering where
// they were headed. The wrapped handler is not called.
func requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.CurrentUser(r.Context()) == nil {
			target := loginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
			resp.Redirect(w, r, target)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the authenticated user. Only valid behind requireLogin.
func currentUser(r *http.Request) *user.User {
	return session.CurrentUser(r.Context())
}

// safeNext returns next if it is a path on this site, otherwise "".
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}

// HandleIndex renders the landing page.
func HandleIndex(deps *AppDeps) http.HandlerFunc {
	return staticPage(deps, tmplIndex, "Home")
}

// HandleSignup creates an account, logs it in and redirects to the landing page.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	flow := &formFlow[forms.Signup]{
		Template: tmplSignup,
		Title:    "Sign up",
		Initial:  func(*http.Request) *forms.Signup { return &forms.Signup{} },
		Bind: func(r *http.Request) *forms.Signup {
			f := &forms.Signup{}
			f.Bind(r)
			return f
		},
		Validate: func(r *http.Request, f *forms.Signup) (forms.Errors, error) {
			return f.Validate(r.Context(), deps.Users)
		},
		Save: func(w http.ResponseWriter, r *http.Request, f *forms.Signup) (forms.Errors, error) {
			reg := user.Registration{Username: f.Username, Email: f.Email, Password: f.Password1}

			if f.Icon != nil {
				key, err := storage.SaveImage(r.Context(), deps.Storage, f.Icon)
				if err != nil {
					return nil, err
				}
				reg.Avatar = key
			}

			u, err := deps.Users.Register(r.Context(), reg)
			if err != nil {
				deleteAvatar(r.Context(), deps, reg.Avatar)
				return forms.FromStoreError(err)
			}
			metrics.RecordSignup()

			// The account exists either way; without a session the user can still log in.
			if _, err := deps.Sessions.Login(w, r, u); err != nil {
				logx.FromContext(r.Context()).Error().Err(err).Str("user_id", u.ID.String()).Msg("signup login failed")
				return nil, &redirectError{url: loginURL}
			}
			return nil, nil
		},
		SuccessURL: redirectTo(signupRedirect),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		flow.serve(deps, w, r)
	}
}

// loginPage is the page-specific content of the login page.
type loginPage struct {
	Next string
}

// HandleLogin authenticates a username and password and starts a session.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	next := func(r *http.Request) string {
		if v := r.PostFormValue("next"); v != "" {
			return safeNext(v)
		}
		return safeNext(r.URL.Query().Get("next"))
	}

	flow := &formFlow[forms.Login]{
		Template: tmplLogin,
		Title:    "Log in",
		Initial:  func(*http.Request) *forms.Login { return &forms.Login{} },
		Bind: func(r *http.Request) *forms.Login {
			f := &forms.Login{}
			f.Bind(r)
			return f
		},
		Validate: func(r *http.Request, f *forms.Login) (forms.Errors, error) {
			fieldErrs, err := f.Validate(r.Context(), deps.Users)
			if err == nil {
				recordLogin(f)
			}
			return fieldErrs, err
		},
		Save: func(w http.ResponseWriter, r *http.Request, f *forms.Login) (forms.Errors, error) {
			_, err := deps.Sessions.Login(w, r, f.User)
			return nil, err
		},
		SuccessURL: func(r *http.Request) string {
			if n := next(r); n != "" {
				return n
			}
			return loginRedirectURL
		},
		Data: func(r *http.Request) (any, error) {
			return loginPage{Next: next(r)}, nil
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		flow.serve(deps, w, r)
	}
}

func recordLogin(f *forms.Login) {
	switch {
	case f.User != nil:
		metrics.RecordLogin(metrics.LoginSuccess)
	case f.Inactive:
		metrics.RecordLogin(metrics.LoginInactive)
	default:
		metrics.RecordLogin(metrics.LoginFailure)
	}
}

// HandleLogout ends the session and redirects to the landing page.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			deps.fail(w, r, errs.NewError(errs.ErrMethodNotAllowed))
			return
		}

		if err := deps.Sessions.Logout(w, r); err != nil {
			logx.FromContext(r.Context()).Error().Err(err).Msg("logout failed")
		}
		resp.Redirect(w, r, logoutRedirect)
	}
}

// deleteAvatar removes an uploaded avatar. The placeholder is never deleted.
// Failures are logged; the account change they follow has already succeeded.
func deleteAvatar(ctx context.Context, deps *AppDeps, key string) {
	if key == "" || key == user.DefaultAvatar {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := deps.Storage.Delete(ctx, key); err != nil {
		logx.FromContext(ctx).Error().Err(err).Str("key", key).Msg("failed to delete avatar")
	}
}
