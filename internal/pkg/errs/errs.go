package errs

import (
	"fmt"
	"net/http"

	"talkroom/internal/pkg/logx"
)

// CustomError carries an application code, a user-facing message and an HTTP status.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

// Error implements error.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError returns the CustomError registered for code. Unknown codes fall back
// to ErrUnknown. For ErrUnknown, an error passed in cause is logged.
func NewError(code int, cause ...error) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d is not registered", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr
	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if customErr.Code == ErrUnknown {
		for _, err := range cause {
			if err != nil {
				logx.Error(err, "Handling ErrUnknown with underlying error")
			}
		}
	}

	return &customErr
}
