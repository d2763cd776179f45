// Package store implements the repository interfaces on a rowstore.Client.
//
// Both backends (the REST adapter and the embedded SQLite store) satisfy the
// same client contract, so the same repository code runs against a hosted
// store in production and an in-process one in tests.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository"
	"github.com/sakif/snipspace/internal/rowstore"
)

const snippetsCollection = "snippets"

var newestFirst = &rowstore.Order{Field: "created_at", Descending: true}

type SnippetStore struct {
	client rowstore.Client
}

var _ repository.SnippetRepository = (*SnippetStore)(nil)

func NewSnippetStore(client rowstore.Client) *SnippetStore {
	return &SnippetStore{client: client}
}

func (s *SnippetStore) ListOwned(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	rows, err := s.client.Select(ctx, rowstore.Query{
		Collection: snippetsCollection,
		Filter:     rowstore.Eq("user_id", ownerID),
		Order:      newestFirst,
	})
	if err != nil {
		return nil, err
	}
	return model.SnippetsFromRows(rows)
}

func (s *SnippetStore) ListPublic(ctx context.Context) ([]model.Snippet, error) {
	rows, err := s.client.Select(ctx, rowstore.Query{
		Collection: snippetsCollection,
		Filter:     rowstore.Eq("is_public", true),
		Order:      newestFirst,
	})
	if err != nil {
		return nil, err
	}
	return model.SnippetsFromRows(rows)
}

func (s *SnippetStore) ListByIDs(ctx context.Context, ids []string) ([]model.Snippet, error) {
	// An empty folder short-circuits: no point asking the store for
	// membership in the empty set.
	if len(ids) == 0 {
		return []model.Snippet{}, nil
	}

	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	rows, err := s.client.Select(ctx, rowstore.Query{
		Collection: snippetsCollection,
		Filter:     rowstore.In("id", values),
		Order:      newestFirst,
	})
	if err != nil {
		return nil, err
	}
	return model.SnippetsFromRows(rows)
}

func (s *SnippetStore) Create(ctx context.Context, fields repository.SnippetFields) (*model.Snippet, error) {
	title := strings.TrimSpace(fields.Title)
	language := strings.TrimSpace(fields.Language)

	// Client-side preconditions: these never reach the remote store.
	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if language == "" {
		return nil, apperror.ValidationFailed("language", "snippet language is required")
	}

	row, err := s.client.Insert(ctx, snippetsCollection, rowstore.Row{
		"user_id":     fields.OwnerID,
		"title":       title,
		"description": fields.Description,
		"code":        fields.Code,
		"language":    language,
		"tags":        []string{},
		"is_public":   fields.IsPublic,
		"is_pinned":   false,
	})
	if err != nil {
		return nil, err
	}
	return model.SnippetFromRow(row)
}

func (s *SnippetStore) UpdateContent(ctx context.Context, id, code string, isPublic bool) error {
	return s.client.Update(ctx, snippetsCollection, rowstore.Eq("id", id), rowstore.Row{
		"code":       code,
		"is_public":  isPublic,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *SnippetStore) UpdateVisibility(ctx context.Context, id string, isPublic bool) error {
	return s.client.Update(ctx, snippetsCollection, rowstore.Eq("id", id), rowstore.Row{
		"is_public":  isPublic,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *SnippetStore) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, snippetsCollection, rowstore.Eq("id", id))
}
