/*
Package randx generates cryptographically secure random tokens.

Tokens are Base62 strings drawn from crypto/rand. They name server-side
sessions and the CSRF cookie.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// SessionTokenLength gives a session ID just over 256 bits of entropy.
	SessionTokenLength = 43

	// CSRFTokenLength is the length of the CSRF cookie value.
	CSRFTokenLength = 32
)

// Base62 returns a random Base62 string of the given length.
func Base62(length int) (string, error) {
	result := make([]byte, length)

	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for token: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// SessionToken generates a new session ID.
func SessionToken() (string, error) {
	return Base62(SessionTokenLength)
}

// CSRFToken generates a new CSRF token.
func CSRFToken() (string, error) {
	return Base62(CSRFTokenLength)
}

// IsBase62 reports whether s has exactly length characters, all from Base62Chars.
func IsBase62(s string, length int) bool {
	if len(s) != length {
		return false
	}

	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
