package store

import (
	"context"
	"strings"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository"
	"github.com/sakif/snipspace/internal/rowstore"
)

const (
	foldersCollection = "folders"
	linksCollection   = "snippet_folders"
)

type FolderStore struct {
	client rowstore.Client
}

var _ repository.FolderRepository = (*FolderStore)(nil)

func NewFolderStore(client rowstore.Client) *FolderStore {
	return &FolderStore{client: client}
}

func (s *FolderStore) ListOwned(ctx context.Context, ownerID string, order repository.ListOrder) ([]model.Folder, error) {
	rows, err := s.client.Select(ctx, rowstore.Query{
		Collection: foldersCollection,
		Filter:     rowstore.Eq("user_id", ownerID),
		Order: &rowstore.Order{
			Field:      "created_at",
			Descending: order == repository.OrderNewestFirst,
		},
	})
	if err != nil {
		return nil, err
	}
	return model.FoldersFromRows(rows)
}

func (s *FolderStore) Get(ctx context.Context, id string) (*model.Folder, error) {
	rows, err := s.client.Select(ctx, rowstore.Query{
		Collection: foldersCollection,
		Filter:     rowstore.Eq("id", id),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("folder", id)
	}
	return model.FolderFromRow(rows[0])
}

func (s *FolderStore) Create(ctx context.Context, ownerID, name, description string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "folder name is required")
	}

	row, err := s.client.Insert(ctx, foldersCollection, rowstore.Row{
		"user_id":     ownerID,
		"name":        name,
		"description": strings.TrimSpace(description),
	})
	if err != nil {
		return nil, err
	}
	return model.FolderFromRow(row)
}

func (s *FolderStore) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.ValidationFailed("name", "folder name is required")
	}
	return s.client.Update(ctx, foldersCollection, rowstore.Eq("id", id), rowstore.Row{
		"name": name,
	})
}

func (s *FolderStore) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, foldersCollection, rowstore.Eq("id", id))
}

func (s *FolderStore) LinkSnippet(ctx context.Context, snippetID, folderID string) error {
	// One join row, no duplicate check.
	_, err := s.client.Insert(ctx, linksCollection, rowstore.Row{
		"snippet_id": snippetID,
		"folder_id":  folderID,
	})
	return err
}

func (s *FolderStore) Unlink(ctx context.Context, snippetID, folderID string) error {
	// Deletes every row matching the pair, so duplicate links go in one go.
	return s.client.Delete(ctx, linksCollection, rowstore.Filter{
		Equals: map[string]any{
			"snippet_id": snippetID,
			"folder_id":  folderID,
		},
	})
}

func (s *FolderStore) ListSnippetIDsForFolder(ctx context.Context, folderID string) ([]string, error) {
	rows, err := s.client.Select(ctx, rowstore.Query{
		Collection: linksCollection,
		Filter:     rowstore.Eq("folder_id", folderID),
	})
	if err != nil {
		return nil, err
	}

	// Duplicate links collapse here: the folder view shows each snippet
	// once no matter how many join rows point at it.
	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		link, err := model.LinkFromRow(row)
		if err != nil {
			return nil, err
		}
		if seen[link.SnippetID] {
			continue
		}
		seen[link.SnippetID] = true
		ids = append(ids, link.SnippetID)
	}
	return ids, nil
}

func (s *FolderStore) CountSnippetsForFolders(ctx context.Context, folderIDs []string) (map[string]int, error) {
	if len(folderIDs) == 0 {
		return map[string]int{}, nil
	}

	values := make([]any, len(folderIDs))
	for i, id := range folderIDs {
		values[i] = id
	}
	rows, err := s.client.Select(ctx, rowstore.Query{
		Collection: linksCollection,
		Filter:     rowstore.In("folder_id", values),
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(folderIDs))
	for _, row := range rows {
		link, err := model.LinkFromRow(row)
		if err != nil {
			return nil, err
		}
		counts[link.FolderID]++
	}
	return counts, nil
}
