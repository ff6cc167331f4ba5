package req

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkroom/internal/pkg/errs"
)

func TestParseFormURLEncoded(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("talk=hi&csrf_token=x"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	require.Nil(t, ParseForm(httptest.NewRecorder(), r))
	assert.Equal(t, "hi", r.PostForm.Get("talk"))

	require.Nil(t, ParseForm(httptest.NewRecorder(), r), "second call is a no-op")
}

func TestParseFormMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", "a@example.com"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	require.Nil(t, ParseForm(httptest.NewRecorder(), r))
	assert.Equal(t, "a@example.com", r.PostForm.Get("email"))
	assert.NotNil(t, r.MultipartForm)
}

func TestParseFormErrors(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	r.Header.Set("Content-Type", "application/json")
	e := ParseForm(httptest.NewRecorder(), r)
	require.NotNil(t, e)
	assert.Equal(t, errs.ErrUnsupportedMediaType, e.Code)

	big := strings.NewReader("talk=" + strings.Repeat("a", int(MaxRequestSize)))
	r = httptest.NewRequest(http.MethodPost, "/", big)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	e = ParseForm(httptest.NewRecorder(), r)
	require.NotNil(t, e)
	assert.Equal(t, errs.ErrRequestEntityTooLarge, e.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, e.Status)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=nope")
	e = ParseForm(httptest.NewRecorder(), r)
	require.NotNil(t, e)
	assert.Equal(t, errs.ErrFormParseFailed, e.Code)
}
