package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository"
)

// In-memory fakes for the repository interfaces. Plain structs, not a mock
// framework: each fake keeps records in maps and exposes an err field per
// write path to simulate a remote failure.

type fakeSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int

	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func newFakeSnippetRepo() *fakeSnippetRepo {
	return &fakeSnippetRepo{snippets: make(map[string]*model.Snippet), nextID: 1}
}

func (f *fakeSnippetRepo) add(ownerID, title string) *model.Snippet {
	s := &model.Snippet{
		ID:        fmt.Sprintf("s%d", f.nextID),
		OwnerID:   ownerID,
		Title:     title,
		Language:  "go",
		CreatedAt: time.Date(2024, 1, f.nextID, 0, 0, 0, 0, time.UTC),
	}
	s.UpdatedAt = s.CreatedAt
	f.nextID++
	f.snippets[s.ID] = s
	return s
}

func (f *fakeSnippetRepo) ListOwned(_ context.Context, ownerID string) ([]model.Snippet, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Snippet
	for _, s := range f.snippets {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSnippetRepo) ListPublic(context.Context) ([]model.Snippet, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Snippet
	for _, s := range f.snippets {
		if s.IsPublic {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSnippetRepo) ListByIDs(_ context.Context, ids []string) ([]model.Snippet, error) {
	if len(ids) == 0 {
		return []model.Snippet{}, nil
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Snippet{}
	for _, id := range ids {
		if s, ok := f.snippets[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSnippetRepo) Create(_ context.Context, fields repository.SnippetFields) (*model.Snippet, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := f.add(fields.OwnerID, strings.TrimSpace(fields.Title))
	s.Description = fields.Description
	s.Code = fields.Code
	s.IsPublic = fields.IsPublic
	return s, nil
}

func (f *fakeSnippetRepo) UpdateContent(_ context.Context, id, code string, isPublic bool) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	s, ok := f.snippets[id]
	if !ok {
		return apperror.NotFound("snippet", id)
	}
	s.Code = code
	s.IsPublic = isPublic
	return nil
}

func (f *fakeSnippetRepo) UpdateVisibility(_ context.Context, id string, isPublic bool) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	s, ok := f.snippets[id]
	if !ok {
		return apperror.NotFound("snippet", id)
	}
	s.IsPublic = isPublic
	return nil
}

func (f *fakeSnippetRepo) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.snippets, id)
	return nil
}

type linkPair struct {
	snippetID string
	folderID  string
}

type fakeFolderRepo struct {
	folders map[string]*model.Folder
	links   []linkPair
	nextID  int

	createErr error
	linkErr   error
	listErr   error
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*model.Folder), nextID: 1}
}

func (f *fakeFolderRepo) ListOwned(_ context.Context, ownerID string, order repository.ListOrder) ([]model.Folder, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Folder
	for _, fo := range f.folders {
		if fo.OwnerID == ownerID {
			out = append(out, *fo)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if order == repository.OrderOldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeFolderRepo) Get(_ context.Context, id string) (*model.Folder, error) {
	fo, ok := f.folders[id]
	if !ok {
		return nil, apperror.NotFound("folder", id)
	}
	copied := *fo
	return &copied, nil
}

func (f *fakeFolderRepo) Create(_ context.Context, ownerID, name, description string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "folder name is required")
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	fo := &model.Folder{
		ID:          fmt.Sprintf("f%d", f.nextID),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Date(2024, 2, f.nextID, 0, 0, 0, 0, time.UTC),
	}
	f.nextID++
	f.folders[fo.ID] = fo
	return fo, nil
}

func (f *fakeFolderRepo) Rename(_ context.Context, id, name string) error {
	fo, ok := f.folders[id]
	if !ok {
		return apperror.NotFound("folder", id)
	}
	fo.Name = strings.TrimSpace(name)
	return nil
}

func (f *fakeFolderRepo) Delete(_ context.Context, id string) error {
	delete(f.folders, id)
	return nil
}

func (f *fakeFolderRepo) LinkSnippet(_ context.Context, snippetID, folderID string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.links = append(f.links, linkPair{snippetID, folderID})
	return nil
}

func (f *fakeFolderRepo) Unlink(_ context.Context, snippetID, folderID string) error {
	kept := f.links[:0]
	for _, l := range f.links {
		if l.snippetID != snippetID || l.folderID != folderID {
			kept = append(kept, l)
		}
	}
	f.links = kept
	return nil
}

func (f *fakeFolderRepo) ListSnippetIDsForFolder(_ context.Context, folderID string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	seen := make(map[string]bool)
	ids := []string{}
	for _, l := range f.links {
		if l.folderID == folderID && !seen[l.snippetID] {
			seen[l.snippetID] = true
			ids = append(ids, l.snippetID)
		}
	}
	return ids, nil
}

func (f *fakeFolderRepo) CountSnippetsForFolders(_ context.Context, folderIDs []string) (map[string]int, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := make(map[string]bool, len(folderIDs))
	for _, id := range folderIDs {
		want[id] = true
	}
	counts := make(map[string]int)
	for _, l := range f.links {
		if want[l.folderID] {
			counts[l.folderID]++
		}
	}
	return counts, nil
}
