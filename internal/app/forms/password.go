package forms

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8

	// MaxPasswordBytes is the longest input bcrypt accepts. It is counted in
	// bytes, so multibyte passwords hit it with fewer characters.
	MaxPasswordBytes = 72
)

const msgPasswordTooLong = "This password is too long. It must contain at most 72 bytes."

// passwordProblems checks password against the password policy.
func passwordProblems(password, username string) []string {
	var out []string

	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		out = append(out, "This password is too short. It must contain at least 8 characters.")
	}
	if len(password) > MaxPasswordBytes {
		out = append(out, msgPasswordTooLong)
	}
	if n > 0 && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		out = append(out, "This password is entirely numeric.")
	}
	if username != "" && strings.EqualFold(password, username) {
		out = append(out, "The password is too similar to the username.")
	}

	return out
}

// checkNewPassword validates a password and its confirmation.
func checkNewPassword(errs Errors, field1, field2, password1, password2, username string) {
	if password1 == "" || password2 == "" || errs.Has(field1) || errs.Has(field2) {
		return
	}

	if password1 != password2 {
		errs.Add(field2, "The two password fields didn't match.")
		return
	}

	for _, p := range passwordProblems(password2, username) {
		errs.Add(field2, p)
	}
}
