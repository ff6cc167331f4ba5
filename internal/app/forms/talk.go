package forms

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"talkroom/internal/app/chat"
)

// Talk composes a message.
type Talk struct {
	Talk string `form:"talk"`
}

func (f *Talk) Bind(r *http.Request) {
	f.Talk = r.PostFormValue("talk")
}

// Validate trims the body in place.
func (f *Talk) Validate() Errors {
	errs := Errors{}

	body, err := chat.NormalizeBody(f.Talk)
	switch {
	case errors.Is(err, chat.ErrEmptyBody):
		errs.Add("talk", msgRequired)
	case errors.Is(err, chat.ErrBodyTooLong):
		errs.Add("talk", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).",
			chat.MaxBodyLength, utf8.RuneCountInString(strings.TrimSpace(f.Talk))))
	default:
		f.Talk = body
	}
	return errs
}
