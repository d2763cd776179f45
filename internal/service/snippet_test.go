package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/repository"
	"github.com/sakif/snipspace/internal/rowstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func remoteErr() error {
	return &rowstore.RemoteError{Op: "update", Collection: "snippets", Code: 500, Message: "boom"}
}

func TestSnippetCreate_EnforcesCaps(t *testing.T) {
	repo := newFakeSnippetRepo()
	svc := NewSnippetService(repo, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, repository.SnippetFields{
		OwnerID:  "u1",
		Title:    strings.Repeat("x", MaxTitleLength+1),
		Language: "go",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, repository.SnippetFields{
		OwnerID:  "u1",
		Title:    "ok",
		Language: "go",
		Code:     strings.Repeat("x", MaxCodeBytes+1),
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Empty(t, repo.snippets, "capped input never reaches the repository")
}

func TestSnippetCreate_Passthrough(t *testing.T) {
	repo := newFakeSnippetRepo()
	svc := NewSnippetService(repo, testLogger())

	s, err := svc.Create(context.Background(), repository.SnippetFields{
		OwnerID: "u1", Title: "bfs", Language: "go", IsPublic: true,
	})
	require.NoError(t, err)
	assert.True(t, s.IsPublic)
	assert.Len(t, repo.snippets, 1)
}

func TestSnippetSave_RemoteFailurePropagates(t *testing.T) {
	repo := newFakeSnippetRepo()
	s := repo.add("u1", "editable")
	repo.updateErr = remoteErr()
	svc := NewSnippetService(repo, testLogger())

	err := svc.Save(context.Background(), s.ID, "new code", true)
	assert.ErrorIs(t, err, apperror.ErrRemote)
	assert.Empty(t, repo.snippets[s.ID].Code, "failed save leaves the record alone")
}

func TestSnippetSave_CodeCap(t *testing.T) {
	repo := newFakeSnippetRepo()
	s := repo.add("u1", "editable")
	svc := NewSnippetService(repo, testLogger())

	err := svc.Save(context.Background(), s.ID, strings.Repeat("x", MaxCodeBytes+1), false)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSnippetSetVisibility(t *testing.T) {
	repo := newFakeSnippetRepo()
	s := repo.add("u1", "togglable")
	svc := NewSnippetService(repo, testLogger())

	require.NoError(t, svc.SetVisibility(context.Background(), s.ID, true))
	assert.True(t, repo.snippets[s.ID].IsPublic)

	repo.updateErr = remoteErr()
	err := svc.SetVisibility(context.Background(), s.ID, false)
	assert.ErrorIs(t, err, apperror.ErrRemote)
}
