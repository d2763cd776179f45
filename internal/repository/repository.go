// Package repository declares the typed access layer over the row store.
//
// Repositories translate between typed records and raw rows, apply the
// client-side preconditions that never reach the remote store (empty title,
// blank folder name), and own the collection names and orderings. Callers
// program against these interfaces; the rowstore-backed implementations live
// in repository/store, and tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/snipspace/internal/model"
)

// SnippetFields are the caller-supplied fields for a new snippet. The store
// assigns ID and timestamps.
type SnippetFields struct {
	OwnerID     string
	Title       string
	Description string
	Code        string
	Language    string
	IsPublic    bool
}

type SnippetRepository interface {
	// ListOwned returns the user's snippets, newest first.
	ListOwned(ctx context.Context, ownerID string) ([]model.Snippet, error)

	// ListPublic returns every snippet with is_public = true, newest first.
	ListPublic(ctx context.Context) ([]model.Snippet, error)

	// ListByIDs returns the snippets whose IDs are in ids, newest first.
	// An empty id set returns an empty slice without a remote call.
	ListByIDs(ctx context.Context, ids []string) ([]model.Snippet, error)

	// Create inserts a snippet. Empty or whitespace-only Title or Language
	// fails locally with ErrValidation before any remote call.
	Create(ctx context.Context, fields SnippetFields) (*model.Snippet, error)

	// UpdateContent writes code and visibility together and refreshes
	// updated_at as part of the same write.
	UpdateContent(ctx context.Context, id, code string, isPublic bool) error

	// UpdateVisibility is the narrow single-field write used by the
	// optimistic toggle path.
	UpdateVisibility(ctx context.Context, id string, isPublic bool) error

	Delete(ctx context.Context, id string) error
}

// ListOrder selects the folder listing order. The folders page shows newest
// first; the folder-picker dialog lists oldest first. Both call sites exist
// in the UI, so both orderings are part of the contract.
type ListOrder int

const (
	OrderNewestFirst ListOrder = iota
	OrderOldestFirst
)

// UserRepository exists only on the server side of the house: the local
// row-store server uses it for sign-up and sign-in. The client core never
// touches user records.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Create inserts a user. A taken email fails with ErrConflict.
	Create(ctx context.Context, email, displayName, passwordHash string) (*model.User, error)
}

type FolderRepository interface {
	ListOwned(ctx context.Context, ownerID string, order ListOrder) ([]model.Folder, error)

	Get(ctx context.Context, id string) (*model.Folder, error)

	// Create inserts a folder. A blank name fails locally with
	// ErrValidation before any remote call.
	Create(ctx context.Context, ownerID, name, description string) (*model.Folder, error)

	Rename(ctx context.Context, id, name string) error

	// Delete removes the folder only. It never cascades to snippets; any
	// join rows referencing the folder are the store's problem.
	Delete(ctx context.Context, id string) error

	// LinkSnippet inserts one join row. No duplicate check: linking the
	// same pair twice produces two rows.
	LinkSnippet(ctx context.Context, snippetID, folderID string) error

	// Unlink removes every join row for the pair (duplicates included).
	Unlink(ctx context.Context, snippetID, folderID string) error

	// ListSnippetIDsForFolder resolves a folder's contents; the caller
	// joins back through SnippetRepository.ListByIDs.
	ListSnippetIDsForFolder(ctx context.Context, folderID string) ([]string, error)

	// CountSnippetsForFolders returns the number of join rows per folder,
	// for the folder-card counters. Folders with no links are absent from
	// the result.
	CountSnippetsForFolders(ctx context.Context, folderIDs []string) (map[string]int, error)
}
