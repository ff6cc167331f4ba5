package handler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"talkroom/internal/app/chat"
	"talkroom/internal/app/session"
	"talkroom/internal/app/storage"
	"talkroom/internal/app/user"
	"talkroom/internal/configs"
	"talkroom/internal/pkg/csrf"
	"talkroom/internal/pkg/resp"
)

type renderCall struct {
	Name string
	Data any
}

// recordingRenderer remembers what was rendered and delegates to the real templates.
type recordingRenderer struct {
	inner resp.Renderer

	mu    sync.Mutex
	calls []renderCall
}

func (rr *recordingRenderer) Render(w io.Writer, name string, data any) error {
	rr.mu.Lock()
	rr.calls = append(rr.calls, renderCall{Name: name, Data: data})
	rr.mu.Unlock()
	return rr.inner.Render(w, name, data)
}

func (rr *recordingRenderer) last(t *testing.T) renderCall {
	t.Helper()
	rr.mu.Lock()
	defer rr.mu.Unlock()
	require.NotEmpty(t, rr.calls, "nothing rendered")
	return rr.calls[len(rr.calls)-1]
}

func (rr *recordingRenderer) lastPage(t *testing.T) PageData {
	t.Helper()
	call := rr.last(t)
	page, ok := call.Data.(PageData)
	require.True(t, ok, "template %s rendered with %T", call.Name, call.Data)
	return page
}

type testApp struct {
	deps     *AppDeps
	server   *httptest.Server
	renderer *recordingRenderer
	users    *user.MemoryRepository
	messages *chat.MemoryRepository
	sessions *session.MemoryStore
	media    *storage.LocalStorage
}

type appOptions struct {
	cfg   *configs.AppConfig
	store func(*session.MemoryStore) session.Store
}

type appOption func(*appOptions)

func withSubmitRateLimit() appOption {
	return func(o *appOptions) { o.cfg.SubmitRateLimit = true }
}

// withSessionStore puts wrap around the in-memory session store.
func withSessionStore(wrap func(*session.MemoryStore) session.Store) appOption {
	return func(o *appOptions) { o.store = wrap }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	o := &appOptions{
		cfg:   &configs.AppConfig{Environment: "development"},
		store: func(m *session.MemoryStore) session.Store { return m },
	}
	for _, opt := range opts {
		opt(o)
	}

	users := user.NewMemoryRepository()
	userService := user.NewService(users, bcrypt.MinCost)

	messages := chat.NewMemoryRepository()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	var clockMu sync.Mutex
	messages.SetClock(func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		tick++
		return start.Add(time.Duration(tick) * time.Second)
	})

	sessions := session.NewMemoryStore()
	media, err := storage.NewLocalStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	templates, err := NewTemplateRenderer(media.URL)
	require.NoError(t, err)
	renderer := &recordingRenderer{inner: templates}

	deps := &AppDeps{
		Config:   o.cfg,
		Users:    userService,
		Chat:     chat.NewService(messages, userService),
		Sessions: session.NewManager(o.store(sessions), userService, session.Options{Secret: "handler-test-secret", TTL: time.Hour}),
		Storage:  media,
		Renderer: renderer,
	}

	server := httptest.NewServer(Router(deps))
	t.Cleanup(server.Close)

	return &testApp{
		deps:     deps,
		server:   server,
		renderer: renderer,
		users:    users,
		messages: messages,
		sessions: sessions,
		media:    media,
	}
}

// register creates an account directly through the service.
func (a *testApp) register(t *testing.T, username, password string) *user.User {
	t.Helper()
	u, err := a.deps.Users.Register(context.Background(), user.Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	return u
}

func (a *testApp) reload(t *testing.T, id uuid.UUID) *user.User {
	t.Helper()
	u, err := a.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

type result struct {
	Status int
	Header http.Header
	Body   string
}

func (r result) Location() string {
	return r.Header.Get("Location")
}

// browser is an HTTP client with a cookie jar that does not follow redirects.
type browser struct {
	t    *testing.T
	app  *testApp
	http *http.Client
}

func (a *testApp) browser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:   t,
		app: a,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) result {
	b.t.Helper()
	res, err := b.http.Do(req)
	require.NoError(b.t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(b.t, err)
	return result{Status: res.StatusCode, Header: res.Header, Body: string(body)}
}

func (b *browser) request(method, path string, body io.Reader) *http.Request {
	b.t.Helper()
	req, err := http.NewRequest(method, b.app.server.URL+path, body)
	require.NoError(b.t, err)
	return req
}

func (b *browser) get(path string) result {
	b.t.Helper()
	return b.do(b.request(http.MethodGet, path, nil))
}

// csrfToken returns the token cookie, visiting the landing page first if needed.
func (b *browser) csrfToken() string {
	b.t.Helper()
	if token := b.cookie(csrf.CookieName); token != "" {
		return token
	}
	b.get("/")
	token := b.cookie(csrf.CookieName)
	require.NotEmpty(b.t, token, "no CSRF cookie issued")
	return token
}

func (b *browser) cookie(name string) string {
	u, _ := url.Parse(b.app.server.URL)
	for _, c := range b.http.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (b *browser) post(path string, values url.Values) result {
	b.t.Helper()
	if values == nil {
		values = url.Values{}
	}
	values.Set(csrf.FieldName, b.csrfToken())

	req := b.request(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// postFile submits a multipart form with one file field.
func (b *browser) postFile(path string, values map[string]string, field, filename string, data []byte) result {
	b.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(b.t, mw.WriteField(csrf.FieldName, b.csrfToken()))
	for k, v := range values {
		require.NoError(b.t, mw.WriteField(k, v))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(b.t, err)
		_, err = fw.Write(data)
		require.NoError(b.t, err)
	}
	require.NoError(b.t, mw.Close())

	req := b.request(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

func (b *browser) login(username, password string) result {
	b.t.Helper()
	res := b.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusSeeOther, res.Status, "login failed: %s", res.Body)
	return res
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
