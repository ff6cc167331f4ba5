package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkroom/internal/app/user"
)

type fakeUsers map[uuid.UUID]*user.User

func (f fakeUsers) Get(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func newTestManager(users ...*user.User) (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	known := fakeUsers{}
	for _, u := range users {
		known[u.ID] = u
	}
	return NewManager(store, known, Options{Secret: "secret", TTL: time.Hour}), store
}

func login(t *testing.T, m *Manager, u *user.User) (*Session, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	s, err := m.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), u)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return s, cookies[0]
}

// whoAmI runs a request with cookie through the middleware and returns the resolved user.
func whoAmI(m *Manager, cookie *http.Cookie) *user.User {
	var got *user.User
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CurrentUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestLoginSetsCookie(t *testing.T) {
	alice := &user.User{ID: uuid.New(), Username: "alice", IsActive: true}
	m, store := newTestManager(alice)

	s, cookie := login(t, m, alice)

	assert.Equal(t, CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, alice.ID, s.UserID)

	got := whoAmI(m, cookie)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)
}

func TestMiddlewareAnonymous(t *testing.T) {
	alice := &user.User{ID: uuid.New(), IsActive: true}
	m, _ := newTestManager(alice)

	assert.Nil(t, whoAmI(m, nil))
	assert.Nil(t, whoAmI(m, &http.Cookie{Name: CookieName, Value: "forged"}))
}

func TestMiddlewareRejectsInactiveUser(t *testing.T) {
	alice := &user.User{ID: uuid.New(), IsActive: true}
	m, _ := newTestManager(alice)
	_, cookie := login(t, m, alice)

	alice.IsActive = false

	assert.Nil(t, whoAmI(m, cookie))
}

func TestLogoutInvalidatesCookie(t *testing.T) {
	alice := &user.User{ID: uuid.New(), IsActive: true}
	m, store := newTestManager(alice)
	s, cookie := login(t, m, alice)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req = req.WithContext(WithUser(req.Context(), alice, s))
	rec := httptest.NewRecorder()
	require.NoError(t, m.Logout(rec, req))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)
	assert.Zero(t, store.Len())

	assert.Nil(t, whoAmI(m, cookie), "old cookie must not resolve after logout")
}

func TestLogoutAnonymous(t *testing.T) {
	m, _ := newTestManager()
	rec := httptest.NewRecorder()

	require.NoError(t, m.Logout(rec, httptest.NewRequest(http.MethodPost, "/logout", nil)))
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestRevokeOthersKeepsCurrent(t *testing.T) {
	alice := &user.User{ID: uuid.New(), IsActive: true}
	bob := &user.User{ID: uuid.New(), IsActive: true}
	m, _ := newTestManager(alice, bob)

	current, currentCookie := login(t, m, alice)
	_, otherCookie := login(t, m, alice)
	_, bobCookie := login(t, m, bob)

	require.NoError(t, m.RevokeOthers(context.Background(), alice.ID, current.ID))

	assert.NotNil(t, whoAmI(m, currentCookie))
	assert.Nil(t, whoAmI(m, otherCookie))
	assert.NotNil(t, whoAmI(m, bobCookie))
}

func TestSecureCookieOverTLS(t *testing.T) {
	alice := &user.User{ID: uuid.New(), IsActive: true}
	m, _ := newTestManager(alice)

	req := httptest.NewRequest(http.MethodPost, "https://example.com/login", nil)
	rec := httptest.NewRecorder()
	_, err := m.Login(rec, req, alice)
	require.NoError(t, err)

	assert.True(t, rec.Result().Cookies()[0].Secure)
}
