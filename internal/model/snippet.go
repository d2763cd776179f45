// Package model defines the typed records stored in the row store.
//
// Field names in the struct tags match the row-store column names exactly
// (snake_case), so a decoded row and a JSON payload agree on shape.
package model

import "time"

// Snippet is a saved code snippet owned by exactly one user.
//
// IsPublic only controls whether the record shows up in the public discovery
// query; writes remain owner-only regardless. IsPinned only affects display
// partitioning (pinned snippets are always shown, bypassing filters).
type Snippet struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	Tags        []string  `json:"tags"`
	IsPublic    bool      `json:"is_public"`
	IsPinned    bool      `json:"is_pinned"`
	CreatedAt   time.Time `json:"created_at"` // immutable after creation
	UpdatedAt   time.Time `json:"updated_at"` // refreshed on every content or visibility edit
}

// Folder groups snippets. Deleting a folder never deletes its snippets.
type Folder struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SnippetFolderLink is the many-to-many join row between snippets and
// folders. A snippet may belong to zero, one, or many folders, and the store
// does not enforce uniqueness: the same pair can be linked more than once.
type SnippetFolderLink struct {
	SnippetID string `json:"snippet_id"`
	FolderID  string `json:"folder_id"`
}

// User is an account on the local row-store server. The client core never
// sees this type; it only carries the opaque user ID from the identity
// provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
