/*
Package errs defines the application error codes and the CustomError type.

Codes identify what went wrong in a request; each one maps to a user-facing
message and an HTTP status (see errorMap).
*/
package errs

// 1xxx: request handling
const (
	// ErrInvalidParams indicates that a path or query parameter failed validation.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates a Content-Type the endpoint does not accept.
	ErrUnsupportedMediaType = 1002

	// ErrFormParseFailed indicates that a urlencoded or multipart body could not be parsed.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrMethodNotAllowed indicates a verb outside the display/submit pair.
	ErrMethodNotAllowed = 1008

	// ErrCSRFTokenInvalid indicates a POST without a matching CSRF token.
	ErrCSRFTokenInvalid = 1009
)

// 2xxx: users and messages
const (
	// ErrUserNotFound indicates a reference to a user that does not exist.
	ErrUserNotFound = 2001

	// ErrPageNotFound indicates an unknown route.
	ErrPageNotFound = 2002
)

// 3xxx: sessions
const (
	// ErrUnauthorized indicates a session-only view reached without a session.
	ErrUnauthorized = 3001
)

// 5xxx: internal
const (
	// ErrUnknown is an unclassified server error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates the avatar storage backend failed.
	ErrFileStorageFailed = 5001
)
