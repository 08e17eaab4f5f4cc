package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when the CSRF token is absent.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrValidation indicates rejected user input.
	ErrValidation = errors.New("validation failed")
	// ErrInUse indicates the record is still referenced elsewhere.
	ErrInUse = errors.New("record in use")
)

// UserSafeMessage converts an error into a message suitable for display.
// Wrapped driver errors are collapsed to a generic message so internal
// details never reach the browser.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record no longer exists."
	case errors.Is(err, ErrAlreadyExists):
		return "A record with that name already exists."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrValidation):
		return "Please review the submitted values and try again."
	case errors.Is(err, ErrInUse):
		return "The record is still in use and cannot be deleted."
	default:
		return "The operation could not be completed. Please try again."
	}
}
