// Package service holds the business rules between the controllers and the
// repositories: input caps, the folder-linking workflow, and the join fetch
// that resolves folder contents.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository"
)

// Input caps enforced before any write reaches the store.
const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 1000
	MaxCodeBytes         = 100 * 1024
)

// SnippetService wraps SnippetRepository with the size caps and the logging
// that sit above the repository layer.
type SnippetService struct {
	snippets repository.SnippetRepository
	logger   *slog.Logger
}

func NewSnippetService(snippets repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		logger:   logger,
	}
}

func (s *SnippetService) ListOwned(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	return s.snippets.ListOwned(ctx, ownerID)
}

func (s *SnippetService) ListPublic(ctx context.Context) ([]model.Snippet, error) {
	return s.snippets.ListPublic(ctx)
}

// Create validates the caps locally and inserts the snippet. The repository
// handles the required-field checks (title, language); the service adds the
// size limits so oversized payloads never leave the process.
func (s *SnippetService) Create(ctx context.Context, fields repository.SnippetFields) (*model.Snippet, error) {
	if err := checkSnippetCaps(fields.Title, fields.Description, fields.Code); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.Create(ctx, fields)
	if err != nil {
		s.logger.Error("snippet create failed", "owner_id", fields.OwnerID, "error", err)
		return nil, err
	}

	s.logger.Info("snippet created", "snippet_id", snippet.ID, "owner_id", snippet.OwnerID)
	return snippet, nil
}

// Save writes code and visibility together. Callers apply the change to
// local state only after this returns nil.
func (s *SnippetService) Save(ctx context.Context, id, code string, isPublic bool) error {
	if len(code) > MaxCodeBytes {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code exceeds %d bytes", MaxCodeBytes))
	}

	if err := s.snippets.UpdateContent(ctx, id, code, isPublic); err != nil {
		s.logger.Error("snippet save failed", "snippet_id", id, "error", err)
		return err
	}
	return nil
}

// SetVisibility is the narrow write behind the optimistic toggle. The
// controller flips local state first and calls this; a non-nil return means
// the flip must be reverted.
func (s *SnippetService) SetVisibility(ctx context.Context, id string, isPublic bool) error {
	if err := s.snippets.UpdateVisibility(ctx, id, isPublic); err != nil {
		s.logger.Error("visibility update failed", "snippet_id", id, "is_public", isPublic, "error", err)
		return err
	}
	return nil
}

func (s *SnippetService) Delete(ctx context.Context, id string) error {
	if err := s.snippets.Delete(ctx, id); err != nil {
		s.logger.Error("snippet delete failed", "snippet_id", id, "error", err)
		return err
	}
	s.logger.Info("snippet deleted", "snippet_id", id)
	return nil
}

func checkSnippetCaps(title, description, code string) error {
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title exceeds %d characters", MaxTitleLength))
	}
	if len(description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength))
	}
	if len(code) > MaxCodeBytes {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code exceeds %d bytes", MaxCodeBytes))
	}
	return nil
}
