package handler

import (
	"errors"
	"net/http"

	"talkroom/internal/app/forms"
	"talkroom/internal/pkg/errs"
	"talkroom/internal/pkg/logx"
	"talkroom/internal/pkg/req"
	"talkroom/internal/pkg/resp"
)

// formFlow configures the display/submit cycle of a page with a form.
//
// GET and HEAD display the form. POST binds and validates the submitted
// fields; on success Save persists them and the client is redirected to
// SuccessURL, otherwise the same page is rendered again with the errors and
// nothing is persisted. Other methods get 405.
type formFlow[F any] struct {
	Template string
	Title    string

	// Initial builds the form shown on display.
	Initial func(r *http.Request) *F

	// Bind copies the submitted fields into a new form.
	Bind func(r *http.Request) *F

	// Validate reports field errors. A non-nil error aborts the request with 500.
	Validate func(r *http.Request, f *F) (forms.Errors, error)

	// Save persists a validated form. It may still report field errors, such
	// as a username taken by a concurrent request. Returning a *redirectError
	// sends the client elsewhere instead of SuccessURL.
	Save func(w http.ResponseWriter, r *http.Request, f *F) (forms.Errors, error)

	SuccessURL func(r *http.Request) string

	// Data loads page-specific content for both states. Optional.
	Data func(r *http.Request) (any, error)
}

func (fl *formFlow[F]) serve(deps *AppDeps, w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		fl.display(deps, w, r, fl.Initial(r), nil)
	case http.MethodPost:
		fl.submit(deps, w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		deps.fail(w, r, errs.NewError(errs.ErrMethodNotAllowed))
	}
}

func (fl *formFlow[F]) display(deps *AppDeps, w http.ResponseWriter, r *http.Request, f *F, fieldErrs forms.Errors) {
	page := newPage(r, fl.Title)
	page.Form = f
	page.Errors = fieldErrs

	if fl.Data != nil {
		data, err := fl.Data(r)
		if err != nil {
			deps.failUnknown(w, r, err)
			return
		}
		page.Data = data
	}

	deps.render(w, r, fl.Template, page)
}

func (fl *formFlow[F]) submit(deps *AppDeps, w http.ResponseWriter, r *http.Request) {
	if customErr := req.ParseForm(w, r); customErr != nil {
		deps.fail(w, r, customErr)
		return
	}

	f := fl.Bind(r)

	fieldErrs, err := fl.Validate(r, f)
	if err != nil {
		deps.failUnknown(w, r, err)
		return
	}
	if fieldErrs.Any() {
		logx.FromContext(r.Context()).Debug().Str("template", fl.Template).Interface("errors", fieldErrs).Msg("form rejected")
		fl.display(deps, w, r, f, fieldErrs)
		return
	}

	fieldErrs, err = fl.Save(w, r, f)
	if redirect := (*redirectError)(nil); errors.As(err, &redirect) {
		resp.Redirect(w, r, redirect.url)
		return
	}
	if err != nil {
		deps.failUnknown(w, r, err)
		return
	}
	if fieldErrs.Any() {
		fl.display(deps, w, r, f, fieldErrs)
		return
	}

	resp.Redirect(w, r, fl.SuccessURL(r))
}

// redirectError ends a submission whose data was saved with a redirect to
// url rather than SuccessURL.
type redirectError struct {
	url string
}

func (e *redirectError) Error() string {
	return "redirect to " + e.url
}

func redirectTo(url string) func(*http.Request) string {
	return func(*http.Request) string { return url }
}
