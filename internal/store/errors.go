package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Error kinds surfaced by the store. Match them with errors.Is; the
// underlying driver error stays in the chain.
var (
	// ErrUniqueViolation reports a colliding primary or composite key.
	ErrUniqueViolation = errors.New("uniqueness violation")

	// ErrReferentialViolation reports a reference to a missing agent or meeting.
	ErrReferentialViolation = errors.New("referential violation")

	// ErrStoreUnavailable reports that a read or commit could not complete
	// (connection closed, disk full, I/O error, lock timeout).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound reports a lookup of a record that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrSessionClosed reports use of a session after Close.
	ErrSessionClosed = errors.New("session closed")
)

// InitError reports a failure to open or initialize a store. It is fatal:
// the process cannot use the store.
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize store %q: %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// IsInitError returns true if err is, or wraps, an *InitError.
func IsInitError(err error) bool {
	var ie *InitError
	return errors.As(err, &ie)
}

// classify tags a driver error with its store error kind.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %w", ErrReferentialViolation, err)
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		}
		switch se.Code {
		case sqlite3.ErrFull, sqlite3.ErrIoErr, sqlite3.ErrCantOpen, sqlite3.ErrReadonly,
			sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return err
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) ||
		strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}
