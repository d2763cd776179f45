package model

import (
	"fmt"
	"time"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/rowstore"
)

// Row decoding lives at the repository boundary: remote rows are parsed into
// typed records here, and a malformed row is rejected with a DecodeError
// instead of letting undefined fields leak upward.

// DecodeError reports a row that could not be parsed into a typed record.
type DecodeError struct {
	Collection string
	Field      string
	Reason     string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s row: field %q: %s", e.Collection, e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return apperror.ErrDecode
}

// SnippetFromRow parses one snippets row. id, user_id, title, language and
// created_at are required; everything else takes its zero value when absent.
func SnippetFromRow(row rowstore.Row) (*Snippet, error) {
	var s Snippet
	var err error

	if s.ID, err = requireString(row, "snippets", "id"); err != nil {
		return nil, err
	}
	if s.OwnerID, err = requireString(row, "snippets", "user_id"); err != nil {
		return nil, err
	}
	if s.Title, err = requireString(row, "snippets", "title"); err != nil {
		return nil, err
	}
	if s.Language, err = requireString(row, "snippets", "language"); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = requireTime(row, "snippets", "created_at"); err != nil {
		return nil, err
	}

	s.Description = optionalString(row, "description")
	s.Code = optionalString(row, "code")
	s.Tags = optionalStrings(row, "tags")
	s.IsPublic = optionalBool(row, "is_public")
	s.IsPinned = optionalBool(row, "is_pinned")
	if t, ok := optionalTime(row, "updated_at"); ok {
		s.UpdatedAt = t
	} else {
		s.UpdatedAt = s.CreatedAt
	}
	return &s, nil
}

// SnippetsFromRows parses a result set, failing on the first bad row.
func SnippetsFromRows(rows []rowstore.Row) ([]Snippet, error) {
	out := make([]Snippet, 0, len(rows))
	for _, r := range rows {
		s, err := SnippetFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// FolderFromRow parses one folders row.
func FolderFromRow(row rowstore.Row) (*Folder, error) {
	var f Folder
	var err error

	if f.ID, err = requireString(row, "folders", "id"); err != nil {
		return nil, err
	}
	if f.OwnerID, err = requireString(row, "folders", "user_id"); err != nil {
		return nil, err
	}
	if f.Name, err = requireString(row, "folders", "name"); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = requireTime(row, "folders", "created_at"); err != nil {
		return nil, err
	}
	f.Description = optionalString(row, "description")
	return &f, nil
}

// FoldersFromRows parses a result set, failing on the first bad row.
func FoldersFromRows(rows []rowstore.Row) ([]Folder, error) {
	out := make([]Folder, 0, len(rows))
	for _, r := range rows {
		f, err := FolderFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

// LinkFromRow parses one snippet_folders join row.
func LinkFromRow(row rowstore.Row) (*SnippetFolderLink, error) {
	var l SnippetFolderLink
	var err error

	if l.SnippetID, err = requireString(row, "snippet_folders", "snippet_id"); err != nil {
		return nil, err
	}
	if l.FolderID, err = requireString(row, "snippet_folders", "folder_id"); err != nil {
		return nil, err
	}
	return &l, nil
}

// UserFromRow parses one users row.
func UserFromRow(row rowstore.Row) (*User, error) {
	var u User
	var err error

	if u.ID, err = requireString(row, "users", "id"); err != nil {
		return nil, err
	}
	if u.Email, err = requireString(row, "users", "email"); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = requireTime(row, "users", "created_at"); err != nil {
		return nil, err
	}
	u.DisplayName = optionalString(row, "display_name")
	u.PasswordHash = optionalString(row, "password_hash")
	return &u, nil
}

func requireString(row rowstore.Row, collection, field string) (string, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return "", &DecodeError{Collection: collection, Field: field, Reason: "missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &DecodeError{Collection: collection, Field: field, Reason: fmt.Sprintf("expected string, got %T", v)}
	}
	if s == "" {
		return "", &DecodeError{Collection: collection, Field: field, Reason: "empty"}
	}
	return s, nil
}

func requireTime(row rowstore.Row, collection, field string) (time.Time, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return time.Time{}, &DecodeError{Collection: collection, Field: field, Reason: "missing"}
	}
	t, ok := parseTimeValue(v)
	if !ok {
		return time.Time{}, &DecodeError{Collection: collection, Field: field, Reason: fmt.Sprintf("not a timestamp: %v", v)}
	}
	return t, nil
}

func optionalString(row rowstore.Row, field string) string {
	if s, ok := row[field].(string); ok {
		return s
	}
	return ""
}

func optionalBool(row rowstore.Row, field string) bool {
	// SQLite surfaces booleans as integers; accept both shapes.
	switch v := row[field].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int64:
		return v != 0
	}
	return false
}

func optionalStrings(row rowstore.Row, field string) []string {
	vs, ok := row[field].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func optionalTime(row rowstore.Row, field string) (time.Time, bool) {
	v, ok := row[field]
	if !ok || v == nil {
		return time.Time{}, false
	}
	return parseTimeValue(v)
}

func parseTimeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		// Stores emit RFC 3339 with or without sub-second precision.
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
