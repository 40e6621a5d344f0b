package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = errors.New("requested resource not found")
	ErrForbidden  = errors.New("forbidden access")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("resource conflict") // e.g., email already registered
	ErrValidation = errors.New("validation failed")

	// Identity and token errors. All of them surface as 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")

	// ErrConfiguration is fatal at startup; it never reaches a client.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrVerification is returned when a stored password hash cannot be parsed.
	ErrVerification = errors.New("password hash verification failed")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenInvalid) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return http.StatusConflict
		case pgerrcode.ForeignKeyViolation, pgerrcode.StringDataRightTruncationDataException:
			return http.StatusBadRequest
		}
	}

	return http.StatusInternalServerError
}

// PublicMessage returns the client-facing message for err. Messages are fixed
// per error class so responses never leak which check failed.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "Validation failed"
	case errors.Is(err, ErrBadRequest):
		return "Bad request"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, ErrMissingToken):
		return "Authentication required"
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenInvalid):
		return "Invalid or expired token"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrNotFound):
		return "Resource not found"
	case errors.Is(err, ErrConflict):
		return "Resource already exists"
	}
	switch HTTPStatusFromError(err) {
	case http.StatusConflict:
		return "Resource already exists"
	case http.StatusBadRequest:
		return "Bad request"
	}
	return "Internal server error"
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
