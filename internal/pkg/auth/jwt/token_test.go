package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(&Payload{SessionID: "sid", UserID: "uid"}, testSecret, time.Hour)
	require.NoError(t, err)

	payload, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "sid", payload.SessionID)
	assert.Equal(t, "uid", payload.UserID)
	assert.Equal(t, TokenIssuer, payload.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateToken(&Payload{SessionID: "sid", UserID: "uid"}, testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(&Payload{SessionID: "sid", UserID: "uid"}, testSecret, -time.Hour)
	require.NoError(t, err)
	empty, err := GenerateToken(&Payload{}, testSecret, time.Hour)
	require.NoError(t, err)

	tests := map[string]struct {
		token  string
		secret string
	}{
		"wrong secret":   {token: valid, secret: "other"},
		"expired":        {token: expired, secret: testSecret},
		"missing claims": {token: empty, secret: testSecret},
		"garbage":        {token: "not-a-jwt", secret: testSecret},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestIdentityExtractorMiddleware(t *testing.T) {
	var got *Payload
	h := IdentityExtractorMiddleware(testSecret, "session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPayloadFromContext(r)
	}))

	token, err := GenerateToken(&Payload{SessionID: "sid", UserID: "uid"}, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, "sid", got.SessionID)

	got = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tampered"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, got)
}
