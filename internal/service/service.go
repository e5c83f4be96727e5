// Package service holds the business rules for books, copies, users, and loans.
// Services validate input, check cross-entity invariants against the store, and
// translate store errors into domain errors.
package service

import (
	"errors"
	"log/slog"
	"time"

	domainerrors "github.com/shelfkeep/library-server/internal/errors"
)

// internalError logs err with context and returns a generic internal error.
// Driver details stay in the log and never reach the caller's message.
func internalError(log *slog.Logger, msg string, err error, args ...any) error {
	log.Error(msg, append(args, "error", err)...)
	return domainerrors.Wrap(err, domainerrors.CodeInternal, "internal error")
}

// asDomainError returns err unchanged when it already carries a domain code.
func asDomainError(err error) (*domainerrors.Error, bool) {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// idMismatch rejects an update whose body names a different id than the path.
// An absent (zero) body id means the path id.
func idMismatch(pathID, bodyID int64) error {
	if bodyID != 0 && bodyID != pathID {
		return domainerrors.Validationf("id %d in body does not match id %d in path", bodyID, pathID)
	}
	return nil
}

func systemClock() time.Time {
	return time.Now().UTC()
}
