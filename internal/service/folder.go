package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository"
)

// MaxFolderNameLength caps folder names before any write reaches the store.
const MaxFolderNameLength = 100

// FolderSummary is a folder plus how many join rows point at it, for the
// folder-card counters on the folders page.
type FolderSummary struct {
	model.Folder
	SnippetCount int
}

// FolderService owns the folder workflows, including the two-step
// create-then-link flow and the join fetch that resolves a folder's
// contents back into snippets.
type FolderService struct {
	folders  repository.FolderRepository
	snippets repository.SnippetRepository
	logger   *slog.Logger
}

func NewFolderService(
	folders repository.FolderRepository,
	snippets repository.SnippetRepository,
	logger *slog.Logger,
) *FolderService {
	return &FolderService{
		folders:  folders,
		snippets: snippets,
		logger:   logger,
	}
}

func (s *FolderService) ListOwned(ctx context.Context, ownerID string, order repository.ListOrder) ([]model.Folder, error) {
	return s.folders.ListOwned(ctx, ownerID, order)
}

// ListWithCounts returns the user's folders newest first, each with its
// snippet count. Folders with no links get a count of zero.
func (s *FolderService) ListWithCounts(ctx context.Context, ownerID string) ([]FolderSummary, error) {
	folders, err := s.folders.ListOwned(ctx, ownerID, repository.OrderNewestFirst)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(folders))
	for i, f := range folders {
		ids[i] = f.ID
	}
	counts, err := s.folders.CountSnippetsForFolders(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]FolderSummary, len(folders))
	for i, f := range folders {
		summaries[i] = FolderSummary{Folder: f, SnippetCount: counts[f.ID]}
	}
	return summaries, nil
}

func (s *FolderService) Get(ctx context.Context, id string) (*model.Folder, error) {
	return s.folders.Get(ctx, id)
}

func (s *FolderService) Create(ctx context.Context, ownerID, name, description string) (*model.Folder, error) {
	if len(name) > MaxFolderNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("folder name exceeds %d characters", MaxFolderNameLength))
	}

	folder, err := s.folders.Create(ctx, ownerID, name, description)
	if err != nil {
		s.logger.Error("folder create failed", "owner_id", ownerID, "error", err)
		return nil, err
	}
	s.logger.Info("folder created", "folder_id", folder.ID, "owner_id", ownerID)
	return folder, nil
}

func (s *FolderService) Rename(ctx context.Context, id, name string) error {
	if len(name) > MaxFolderNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("folder name exceeds %d characters", MaxFolderNameLength))
	}
	return s.folders.Rename(ctx, id, name)
}

func (s *FolderService) Delete(ctx context.Context, id string) error {
	if err := s.folders.Delete(ctx, id); err != nil {
		s.logger.Error("folder delete failed", "folder_id", id, "error", err)
		return err
	}
	s.logger.Info("folder deleted", "folder_id", id)
	return nil
}

// AddToFolder links an existing snippet into an existing folder.
func (s *FolderService) AddToFolder(ctx context.Context, snippetID, folderID string) error {
	if err := s.folders.LinkSnippet(ctx, snippetID, folderID); err != nil {
		s.logger.Error("snippet link failed", "snippet_id", snippetID, "folder_id", folderID, "error", err)
		return err
	}
	return nil
}

// RemoveFromFolder removes every join row for the pair.
func (s *FolderService) RemoveFromFolder(ctx context.Context, snippetID, folderID string) error {
	return s.folders.Unlink(ctx, snippetID, folderID)
}

// CreateAndLink creates a folder and links the snippet into it, as two
// separate writes with no transaction spanning them. When the create fails
// nothing has happened and the error comes back alone. When the create
// succeeds and the link fails, the folder exists without the snippet: the
// created folder is returned together with a *apperror.PartialLinkError so
// the caller can surface the partial outcome and retry just the link step
// via AddToFolder.
func (s *FolderService) CreateAndLink(ctx context.Context, ownerID, name, snippetID string) (*model.Folder, error) {
	folder, err := s.Create(ctx, ownerID, name, "")
	if err != nil {
		return nil, err
	}

	if err := s.folders.LinkSnippet(ctx, snippetID, folder.ID); err != nil {
		s.logger.Warn("folder created but link failed",
			"folder_id", folder.ID, "snippet_id", snippetID, "error", err)
		return folder, &apperror.PartialLinkError{
			FolderID:  folder.ID,
			SnippetID: snippetID,
			Err:       err,
		}
	}

	s.logger.Info("snippet linked into new folder", "folder_id", folder.ID, "snippet_id", snippetID)
	return folder, nil
}

// Contents resolves a folder's snippets: join rows first, then the snippet
// records by ID. An empty folder resolves without a second call.
func (s *FolderService) Contents(ctx context.Context, folderID string) ([]model.Snippet, error) {
	ids, err := s.folders.ListSnippetIDsForFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	return s.snippets.ListByIDs(ctx, ids)
}
