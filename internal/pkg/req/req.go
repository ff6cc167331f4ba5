/*
Package req provides helper functions for HTTP request parsing.

It parses urlencoded and multipart form bodies under a fixed size limit and
maps failures to errs codes.
*/
package req

import (
	"errors"
	"mime"
	"net/http"

	"talkroom/internal/pkg/errs"
)

const (
	// MaxFormMemory defines the maximum amount of memory ParseMultipartForm
	// will use to store file parts. Larger parts are stored in temporary files.
	MaxFormMemory int64 = 8 << 20 // 8 MB

	// MaxRequestSize bounds the entire request body, including files.
	// It leaves room for a 5 MB image plus the other form fields.
	MaxRequestSize int64 = 6 << 20 // 6 MB
)

// ParseForm parses the urlencoded or multipart body of r into r.PostForm
// (and r.MultipartForm). It is safe to call more than once.
func ParseForm(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	if r.PostForm != nil {
		return nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestSize)

	var err error
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		err = r.ParseMultipartForm(MaxFormMemory)
	case "application/x-www-form-urlencoded", "":
		err = r.ParseForm()
	default:
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
