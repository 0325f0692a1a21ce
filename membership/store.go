package membership

import (
	"context"
	"errors"
)

var (
	// ErrExists is returned by Insert when the identifier already has a
	// membership. A grant is never an upsert; revoke first to change terms.
	ErrExists = errors.New("membership: record already exists")

	// ErrNotFound is returned by Delete when no record matches.
	ErrNotFound = errors.New("membership: record not found")
)

// Store provides persistence for membership records, keyed by identifier.
// Each call is self-contained: implementations must not hold transactions
// or connections open across calls.
type Store interface {
	// EnsureSchema creates the backing table if absent. Idempotent.
	EnsureSchema(ctx context.Context) error

	// Insert persists a new record. Returns ErrExists if the identifier
	// already has one.
	Insert(ctx context.Context, rec Record) error

	// Delete removes the record for identifier. Returns ErrNotFound on a miss.
	Delete(ctx context.Context, identifier string) error

	// Find returns the record for identifier. A benign miss is reported via
	// found=false, not an error.
	Find(ctx context.Context, identifier string) (Record, bool, error)

	// FindExpired returns all records with a non-zero ExpiresAt in the past.
	FindExpired(ctx context.Context, nowUnix int64) ([]Record, error)
}
