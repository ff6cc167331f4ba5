package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorKnownCode(t *testing.T) {
	err := NewError(ErrUserNotFound)

	assert.Equal(t, ErrUserNotFound, err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, "User not found.", err.Message)
}

func TestNewErrorUnknownCodeFallsBack(t *testing.T) {
	err := NewError(424242)

	assert.Equal(t, ErrUnknown, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestNewErrorReturnsCopy(t *testing.T) {
	err := NewError(ErrMethodNotAllowed, errors.New("ignored"))
	err.Message = "changed"

	assert.Equal(t, "Method not allowed.", NewError(ErrMethodNotAllowed).Message)
}

func TestEveryCodeHasStatus(t *testing.T) {
	for code, e := range errorMap {
		assert.Equal(t, code, e.Code)
		assert.NotZero(t, e.Status, "code %d", code)
	}
}
