package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"talkroom/internal/app/user"
	"talkroom/internal/pkg/auth/jwt"
	"talkroom/internal/pkg/logx"
	"talkroom/internal/pkg/randx"
)

// CookieName is the name of the signed session cookie.
const CookieName = "talkroom_session"

type contextKey string

const (
	contextUserKey    contextKey = "session_user"
	contextSessionKey contextKey = "session"
)

// UserGetter loads the account a session belongs to.
type UserGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Options configures a Manager.
type Options struct {
	Secret string
	TTL    time.Duration
	// Secure marks the cookie Secure. Requests served over TLS always get a
	// Secure cookie.
	Secure bool
}

// Manager issues, resolves and destroys sessions.
type Manager struct {
	store Store
	users UserGetter
	opts  Options
	now   func() time.Time
}

func NewManager(store Store, users UserGetter, opts Options) *Manager {
	return &Manager{store: store, users: users, opts: opts, now: time.Now}
}

// Login creates a session for u and sets the session cookie on w.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, u *user.User) (*Session, error) {
	id, err := randx.SessionToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		ID:        id,
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}
	if err := m.store.Create(r.Context(), s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := jwt.GenerateToken(&jwt.Payload{SessionID: s.ID, UserID: u.ID.String()}, m.opts.Secret, m.opts.TTL)
	if err != nil {
		return nil, fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, m.cookie(r, token, s.ExpiresAt))

	logx.FromContext(r.Context()).Info().Str("user_id", u.ID.String()).Msg("session created")
	return s, nil
}

// Logout deletes the request's session, if any, and clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, m.cookie(r, "", time.Unix(0, 0)))

	s := CurrentSession(r.Context())
	if s == nil {
		return nil
	}
	if err := m.store.Delete(r.Context(), s.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RevokeOthers deletes every session of userID except keep.
func (m *Manager) RevokeOthers(ctx context.Context, userID uuid.UUID, keep string) error {
	return m.store.DeleteByUser(ctx, userID, keep)
}

// Middleware resolves the session cookie into the current user. Requests
// without a valid session pass through anonymously.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	extract := jwt.IdentityExtractorMiddleware(m.opts.Secret, CookieName)

	return func(next http.Handler) http.Handler {
		resolve := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload := jwt.GetPayloadFromContext(r)
			if payload == nil {
				next.ServeHTTP(w, r)
				return
			}

			s, u, err := m.resolve(r.Context(), payload)
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					logx.FromContext(r.Context()).Error().Err(err).Msg("session lookup failed")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u, s)))
		})
		return extract(resolve)
	}
}

func (m *Manager) resolve(ctx context.Context, payload *jwt.Payload) (*Session, *user.User, error) {
	s, err := m.store.Get(ctx, payload.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if s.UserID.String() != payload.UserID {
		return nil, nil, ErrNotFound
	}

	u, err := m.users.Get(ctx, s.UserID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, ErrNotFound
	}

	return s, u, nil
}

func (m *Manager) cookie(r *http.Request, value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.opts.Secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}

// CurrentUser returns the authenticated user of the request, or nil.
func CurrentUser(ctx context.Context) *user.User {
	u, _ := ctx.Value(contextUserKey).(*user.User)
	return u
}

// CurrentSession returns the session of the request, or nil.
func CurrentSession(ctx context.Context) *Session {
	s, _ := ctx.Value(contextSessionKey).(*Session)
	return s
}

// WithUser returns a copy of ctx carrying u and s as the authenticated
// request state.
func WithUser(ctx context.Context, u *user.User, s *Session) context.Context {
	ctx = context.WithValue(ctx, contextSessionKey, s)
	return context.WithValue(ctx, contextUserKey, u)
}
