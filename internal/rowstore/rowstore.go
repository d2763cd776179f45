// Package rowstore defines the generic row-store contract the rest of the
// application is written against.
//
// The store holds named collections of loosely-typed rows and supports
// equality/membership filtering and single-field ordering, nothing more.
// Two backends implement the contract: a REST adapter speaking to a hosted
// store (rowstore/rest) and an embedded SQLite store (rowstore/sqlite) used
// by the local server and in tests. Repositories turn rows into typed
// records at their boundary; nothing above them touches a raw Row.
package rowstore

import (
	"context"
	"fmt"

	"github.com/sakif/snipspace/internal/apperror"
)

// Row is one record as the store returns it. Values are JSON-shaped:
// string, float64, bool, []any, or nil.
type Row map[string]any

// Filter selects rows by field equality and membership. A zero Filter
// matches every row. Equals and In conditions are ANDed together.
type Filter struct {
	Equals map[string]any
	In     map[string][]any
}

// Order sorts results by a single field.
type Order struct {
	Field      string
	Descending bool
}

// Query describes one Select call.
type Query struct {
	Collection string
	Filter     Filter
	Order      *Order // nil = store-defined order
}

// Client is the capability every backend provides. All calls are scoped by
// whatever credential the backend was constructed with; the store itself
// enforces row ownership on writes.
type Client interface {
	// Select returns the rows matching the query.
	Select(ctx context.Context, q Query) ([]Row, error)

	// Insert stores one record and returns it as the store persisted it,
	// including store-assigned fields (id, created_at).
	Insert(ctx context.Context, collection string, record Row) (Row, error)

	// Update applies the partial record to every row matching the filter.
	Update(ctx context.Context, collection string, f Filter, patch Row) error

	// Delete removes every row matching the filter.
	Delete(ctx context.Context, collection string, f Filter) error
}

// RemoteError reports a failed store call. It satisfies
// errors.Is(err, apperror.ErrRemote).
type RemoteError struct {
	Op         string // "select", "insert", "update", "delete"
	Collection string
	Code       int // HTTP status or driver code; 0 when unknown
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rowstore: %s %s: %s (code %d)", e.Op, e.Collection, e.Message, e.Code)
	}
	return fmt.Sprintf("rowstore: %s %s: %s", e.Op, e.Collection, e.Message)
}

func (e *RemoteError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return apperror.ErrRemote
}

// Is lets errors.Is(err, apperror.ErrRemote) match regardless of the
// wrapped cause.
func (e *RemoteError) Is(target error) bool {
	return target == apperror.ErrRemote
}

// Eq is shorthand for a single-equality filter.
func Eq(field string, value any) Filter {
	return Filter{Equals: map[string]any{field: value}}
}

// In is shorthand for a single-membership filter.
func In(field string, values []any) Filter {
	return Filter{In: map[string][]any{field: values}}
}
