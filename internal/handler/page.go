package handler

import (
	"net/http"

	"talkroom/internal/app/forms"
	"talkroom/internal/app/session"
	"talkroom/internal/app/user"
	"talkroom/internal/pkg/csrf"
	"talkroom/internal/pkg/errs"
	"talkroom/internal/pkg/resp"
)

// Template names.
const (
	tmplIndex              = "index"
	tmplSignup             = "signup"
	tmplLogin              = "login"
	tmplFriends            = "friends"
	tmplTalkRoom           = "talk_room"
	tmplSetting            = "setting"
	tmplAvatarChange       = "user_img_change"
	tmplAvatarChangeDone   = "user_img_change_done"
	tmplEmailChange        = "mail_change"
	tmplEmailChangeDone    = "mail_change_done"
	tmplUsernameChange     = "username_change"
	tmplUsernameChangeDone = "username_change_done"
	tmplPasswordChange     = "password_change"
	tmplPasswordChangeDone = "password_change_done"
)

// PageData is the context every page template receives.
type PageData struct {
	Title     string
	User      *user.User
	CSRFToken string

	// Form holds the values shown in the form, Errors the messages from a failed submit.
	Form   any
	Errors forms.Errors

	// Data is page-specific content.
	Data any
}

func newPage(r *http.Request, title string) PageData {
	return PageData{
		Title:     title,
		User:      session.CurrentUser(r.Context()),
		CSRFToken: csrf.Token(r.Context()),
	}
}

func (deps *AppDeps) render(w http.ResponseWriter, r *http.Request, name string, page PageData) {
	resp.HTML(w, r, deps.Renderer, http.StatusOK, name, page)
}

// fail renders the error page for customErr.
func (deps *AppDeps) fail(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	extra := map[string]any{"CSRFToken": csrf.Token(r.Context())}
	if u := session.CurrentUser(r.Context()); u != nil {
		extra["User"] = u
	}
	resp.RespondError(w, r, deps.Renderer, customErr, extra)
}

// failUnknown logs err and renders a 500 page.
func (deps *AppDeps) failUnknown(w http.ResponseWriter, r *http.Request, err error) {
	deps.fail(w, r, errs.NewError(errs.ErrUnknown, err))
}

// staticPage renders a page that has no state of its own.
func staticPage(deps *AppDeps, name, title string) http.HandlerFunc {
	return readOnly(deps, func(w http.ResponseWriter, r *http.Request) {
		deps.render(w, r, name, newPage(r, title))
	})
}

// readOnly answers GET and HEAD and rejects every other method.
func readOnly(deps *AppDeps, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			h(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD")
			deps.fail(w, r, errs.NewError(errs.ErrMethodNotAllowed))
		}
	}
}
