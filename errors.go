package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeUsernameNotFound   = "USERNAME_NOT_REGISTERED"
	TextCodeUsernameTaken      = "USERNAME_TAKEN"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeSessionDecodeError = "SESSION_DECODE_ERROR"
	TextCodeValidationError    = "VALIDATION_ERROR"
)

// ErrIdentityNotFound is returned when a login names a username that was
// never registered. Callers get a message distinct from the bad-secret case.
var ErrIdentityNotFound = errors.New("username not registered", errors.CategoryNotFound).
	WithTextCode(TextCodeUsernameNotFound).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a presented secret does not
// match the stored hash.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrUsernameTaken is returned when registration collides with an existing
// username, whether at the pre-check or at write time.
var ErrUsernameTaken = errors.New("username already registered", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeConflict)

// ErrTokenExpired is returned by token validation after the embedded expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that cannot be parsed or whose
// signature does not verify.
var ErrTokenMalformed = errors.New("token is malformed or invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when the hasher is handed an empty secret.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrUnableToDecodeSession is returned when validated claims cannot be
// mapped back into a session.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession is returned when the router context carries no
// session under the configured key.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToMapClaims is returned when token claims have an unexpected shape.
var ErrUnableToMapClaims = errors.New("unable to map token claims", errors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
