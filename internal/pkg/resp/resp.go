/*
Package resp writes HTTP responses: rendered HTML pages, redirects, error pages
and the small JSON payloads used by operational endpoints.
*/
package resp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"talkroom/internal/pkg/errs"
	"talkroom/internal/pkg/logx"
)

// ErrorTemplate is the template used for error pages.
const ErrorTemplate = "error"

// Renderer executes the named page template with data.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// JSONResponse defines the standardized JSON response structure.
type JSONResponse struct {
	// Code is the business status code (0 for success, others for specific errors, see errs package).
	Code int `json:"code"`

	// Message is the client-friendly status description or error message.
	Message string `json:"message"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// HTML renders the page name with data. The page is rendered into a buffer
// first so a template failure still yields a clean 500.
func HTML(w http.ResponseWriter, r *http.Request, rnd Renderer, status int, name string, data any) {
	var buf bytes.Buffer
	if err := rnd.Render(&buf, name, data); err != nil {
		logx.FromContext(r.Context()).Error().Err(err).Str("template", name).Msg("Error rendering template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = buf.WriteTo(w)
	}
}

// Redirect sends a 303 See Other to url, so the browser follows up with a GET.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// RespondError renders the error page for customErr with its HTTP status.
// extra is merged into the template data.
func RespondError(w http.ResponseWriter, r *http.Request, rnd Renderer, customErr *errs.CustomError, extra map[string]any) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	data := map[string]any{
		"Title":   http.StatusText(customErr.Status),
		"Status":  customErr.Status,
		"Code":    customErr.Code,
		"Message": customErr.Message,
	}
	for k, v := range extra {
		data[k] = v
	}

	HTML(w, r, rnd, customErr.Status, ErrorTemplate, data)
}

// RespondJSON is a generic response function used to set the Content-Type and send the JSON payload.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends a successful HTTP response (HTTP 200 OK).
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	res := JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	}
	RespondJSON(w, r, http.StatusOK, res)
}
