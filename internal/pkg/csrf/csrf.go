/*
Package csrf implements double-submit cookie protection for form posts.

Every response carries a random token in a cookie; pages embed the same token
in a hidden form field. Unsafe requests whose field (or X-CSRF-Token header)
does not match the cookie are rejected.
*/
package csrf

import (
	"context"
	"crypto/subtle"
	"net/http"

	"talkroom/internal/pkg/errs"
	"talkroom/internal/pkg/logx"
	"talkroom/internal/pkg/randx"
	"talkroom/internal/pkg/req"
)

const (
	CookieName = "talkroom_csrf"
	FieldName  = "csrf_token"
	HeaderName = "X-CSRF-Token"
)

type contextKey string

const tokenContextKey contextKey = "csrf_token"

// FailureFunc reports a rejected request.
type FailureFunc func(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError)

// Protect ensures every request has a CSRF token and verifies it on unsafe
// methods. secure marks the cookie Secure outside of TLS requests too.
func Protect(secure bool, fail FailureFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, token := ensureToken(w, r, secure)

			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if customErr := req.ParseForm(w, r); customErr != nil {
				fail(w, r, customErr)
				return
			}

			submitted := r.PostForm.Get(FieldName)
			if submitted == "" {
				submitted = r.Header.Get(HeaderName)
			}

			if token == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
				logx.FromContext(r.Context()).Warn().Str("path", r.URL.Path).Msg("CSRF token mismatch")
				fail(w, r, errs.NewError(errs.ErrCSRFTokenInvalid))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Token returns the CSRF token of the request.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// WithToken returns a copy of ctx carrying token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

func ensureToken(w http.ResponseWriter, r *http.Request, secure bool) (*http.Request, string) {
	if cookie, err := r.Cookie(CookieName); err == nil && randx.IsBase62(cookie.Value, randx.CSRFTokenLength) {
		return r.WithContext(WithToken(r.Context(), cookie.Value)), cookie.Value
	}

	token, err := randx.CSRFToken()
	if err != nil {
		logx.Error(err, "failed to generate CSRF token")
		return r, ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return r.WithContext(WithToken(r.Context(), token)), token
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
