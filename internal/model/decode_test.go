package model

import (
	"errors"
	"testing"
	"time"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/rowstore"
)

func validSnippetRow() rowstore.Row {
	return rowstore.Row{
		"id":          "snip1",
		"user_id":     "user1",
		"title":       "Binary search",
		"description": "classic",
		"code":        "func search() {}",
		"language":    "go",
		"tags":        []any{"algo", "search"},
		"is_public":   true,
		"is_pinned":   false,
		"created_at":  "2024-01-02T10:00:00Z",
		"updated_at":  "2024-01-03T10:00:00Z",
	}
}

func TestSnippetFromRow(t *testing.T) {
	s, err := SnippetFromRow(validSnippetRow())
	if err != nil {
		t.Fatalf("SnippetFromRow() error = %v", err)
	}

	if s.ID != "snip1" || s.OwnerID != "user1" {
		t.Errorf("identity fields = %q/%q", s.ID, s.OwnerID)
	}
	if !s.IsPublic || s.IsPinned {
		t.Errorf("flags = public %v pinned %v", s.IsPublic, s.IsPinned)
	}
	if len(s.Tags) != 2 || s.Tags[0] != "algo" {
		t.Errorf("Tags = %v", s.Tags)
	}
	want := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	if !s.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", s.CreatedAt, want)
	}
}

func TestSnippetFromRow_MissingRequired(t *testing.T) {
	for _, field := range []string{"id", "user_id", "title", "language", "created_at"} {
		row := validSnippetRow()
		delete(row, field)

		_, err := SnippetFromRow(row)
		if err == nil {
			t.Errorf("missing %s: expected error", field)
			continue
		}
		if !errors.Is(err, apperror.ErrDecode) {
			t.Errorf("missing %s: error = %v, want ErrDecode", field, err)
		}
		var dec *DecodeError
		if !errors.As(err, &dec) || dec.Field != field {
			t.Errorf("missing %s: DecodeError.Field = %v", field, err)
		}
	}
}

func TestSnippetFromRow_WrongType(t *testing.T) {
	row := validSnippetRow()
	row["title"] = 42.0

	_, err := SnippetFromRow(row)
	if !errors.Is(err, apperror.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestSnippetFromRow_SQLiteBooleans(t *testing.T) {
	// The embedded backend surfaces booleans as integers.
	row := validSnippetRow()
	row["is_public"] = int64(1)
	row["is_pinned"] = float64(0)

	s, err := SnippetFromRow(row)
	if err != nil {
		t.Fatalf("SnippetFromRow() error = %v", err)
	}
	if !s.IsPublic || s.IsPinned {
		t.Errorf("flags = public %v pinned %v, want true/false", s.IsPublic, s.IsPinned)
	}
}

func TestSnippetFromRow_UpdatedAtDefaultsToCreatedAt(t *testing.T) {
	row := validSnippetRow()
	delete(row, "updated_at")

	s, err := SnippetFromRow(row)
	if err != nil {
		t.Fatalf("SnippetFromRow() error = %v", err)
	}
	if !s.UpdatedAt.Equal(s.CreatedAt) {
		t.Errorf("UpdatedAt = %v, want CreatedAt %v", s.UpdatedAt, s.CreatedAt)
	}
}

func TestFolderFromRow(t *testing.T) {
	f, err := FolderFromRow(rowstore.Row{
		"id":         "fold1",
		"user_id":    "user1",
		"name":       "React Components",
		"created_at": "2024-02-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("FolderFromRow() error = %v", err)
	}
	if f.Name != "React Components" || f.Description != "" {
		t.Errorf("folder = %+v", f)
	}
}

func TestLinkFromRow_Missing(t *testing.T) {
	_, err := LinkFromRow(rowstore.Row{"snippet_id": "s1"})
	if !errors.Is(err, apperror.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestSnippetsFromRows_FailsOnFirstBadRow(t *testing.T) {
	rows := []rowstore.Row{validSnippetRow(), {"id": "broken"}}
	_, err := SnippetsFromRows(rows)
	if !errors.Is(err, apperror.ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}
