package socialgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrSelfFollow is returned when actor and target are the same user.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrUserExists is returned by CreateUser when the document already exists.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidUserID is returned by CreateUser when the ID contains the
	// key path separator. Edge keys join user IDs with "/", so an ID
	// carrying one would alias another user's edge namespace.
	ErrInvalidUserID = errors.New("user ID must not contain '/'")

	// ErrTransactionConflict is returned when the store exhausted its
	// conflict-retry budget. Callers may retry the whole operation once.
	ErrTransactionConflict = errors.New("transaction conflict: retries exhausted")
)

// NotFoundError reports a missing actor or target user document.
type NotFoundError struct {
	UserID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user %q not found", e.UserID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
