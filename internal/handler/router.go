/*
Package handler provides the HTTP handlers and routing setup for the talkroom server.

Pages are rendered on the server. Handlers with a form share one display/submit
cycle (see formFlow); every page except the landing, signup and login pages
requires a session.
*/
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"talkroom/internal/app/storage"
	"talkroom/internal/pkg/csrf"
	"talkroom/internal/pkg/errs"
	"talkroom/internal/pkg/limiter"
	"talkroom/internal/pkg/logx"
	"talkroom/internal/pkg/metrics"
	"talkroom/internal/pkg/resp"
)

// Signup and login submissions per client IP, when SubmitRateLimit is on.
const (
	AccountSubmitInterval = 6 * time.Second
	AccountSubmitBurst    = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type", csrf.HeaderName},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		deps.fail(w, r, errs.NewError(errs.ErrPageNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		deps.fail(w, r, errs.NewError(errs.ErrMethodNotAllowed))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "talkroom",
		}
		resp.RespondSuccess(w, r, data)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(StaticFS()))))
	if local, ok := deps.Storage.(*storage.LocalStorage); ok && strings.HasPrefix(local.MediaURL(), "/") {
		prefix := local.MediaURL()
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(local.Root()))))
	}

	r.Group(func(pages chi.Router) {
		pages.Use(deps.Sessions.Middleware())
		pages.Use(csrf.Protect(!deps.Config.IsDevelopment(), deps.fail))

		pages.HandleFunc("/", HandleIndex(deps))

		throttled := pages
		if deps.Config.SubmitRateLimit {
			accountLimiter := limiter.NewIPRateLimiter(rate.Every(AccountSubmitInterval), AccountSubmitBurst)
			throttled = pages.With(accountLimiter.Middleware(deps.fail))
		}
		throttled.HandleFunc("/signup", HandleSignup(deps))
		throttled.HandleFunc("/login", HandleLogin(deps))

		pages.Group(func(private chi.Router) {
			private.Use(requireLogin)

			private.HandleFunc("/logout", HandleLogout(deps))
			private.HandleFunc("/friends", HandleFriends(deps))
			private.HandleFunc("/talk/{user_id}", HandleTalkRoom(deps))

			private.HandleFunc("/setting", HandleSetting(deps))
			private.HandleFunc("/setting/avatar", HandleAvatarChange(deps))
			private.HandleFunc("/setting/avatar/done", staticPage(deps, tmplAvatarChangeDone, "Avatar changed"))
			private.HandleFunc("/setting/email", HandleEmailChange(deps))
			private.HandleFunc("/setting/email/done", staticPage(deps, tmplEmailChangeDone, "Email changed"))
			private.HandleFunc("/setting/username", HandleUsernameChange(deps))
			private.HandleFunc("/setting/username/done", staticPage(deps, tmplUsernameChangeDone, "Username changed"))
			private.HandleFunc("/setting/password", HandlePasswordChange(deps))
			private.HandleFunc("/setting/password/done", staticPage(deps, tmplPasswordChangeDone, "Password changed"))
		})
	})

	return r
}
