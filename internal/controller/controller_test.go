package controller

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/snipspace/internal/repository"
	"github.com/sakif/snipspace/internal/repository/store"
	"github.com/sakif/snipspace/internal/rowstore"
	"github.com/sakif/snipspace/internal/rowstore/sqlite"
	"github.com/sakif/snipspace/internal/service"
)

// Controller tests run the real services and repositories over the embedded
// SQLite backend. flakyClient wraps the backend so individual operations can
// be made to fail, which is how the revert and partial-failure paths get
// exercised.

type flakyClient struct {
	inner rowstore.Client

	mu   sync.Mutex
	fail map[string]error // keyed "op collection", e.g. "update snippets"

	// onUpdate runs before a delegated Update. Tests use it to interleave
	// a second operation while the first is in flight.
	onUpdate func()
}

func newFlakyClient(inner rowstore.Client) *flakyClient {
	return &flakyClient{inner: inner, fail: make(map[string]error)}
}

func (f *flakyClient) failOn(op, collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op+" "+collection] = &rowstore.RemoteError{
		Op: op, Collection: collection, Code: http.StatusInternalServerError, Message: "injected",
	}
}

func (f *flakyClient) recover(op, collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fail, op+" "+collection)
}

func (f *flakyClient) failure(op, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[op+" "+collection]
}

func (f *flakyClient) Select(ctx context.Context, q rowstore.Query) ([]rowstore.Row, error) {
	if err := f.failure("select", q.Collection); err != nil {
		return nil, err
	}
	return f.inner.Select(ctx, q)
}

func (f *flakyClient) Insert(ctx context.Context, collection string, record rowstore.Row) (rowstore.Row, error) {
	if err := f.failure("insert", collection); err != nil {
		return nil, err
	}
	return f.inner.Insert(ctx, collection, record)
}

func (f *flakyClient) Update(ctx context.Context, collection string, filter rowstore.Filter, patch rowstore.Row) error {
	f.mu.Lock()
	hook := f.onUpdate
	f.onUpdate = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err := f.failure("update", collection); err != nil {
		return err
	}
	return f.inner.Update(ctx, collection, filter, patch)
}

func (f *flakyClient) Delete(ctx context.Context, collection string, filter rowstore.Filter) error {
	if err := f.failure("delete", collection); err != nil {
		return err
	}
	return f.inner.Delete(ctx, collection, filter)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

type fixture struct {
	client   *flakyClient
	snippets *service.SnippetService
	folders  *service.FolderService
	notify   *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := newFlakyClient(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	snippetRepo := store.NewSnippetStore(client)
	folderRepo := store.NewFolderStore(client)

	return &fixture{
		client:   client,
		snippets: service.NewSnippetService(snippetRepo, logger),
		folders:  service.NewFolderService(folderRepo, snippetRepo, logger),
		notify:   &recordingNotifier{},
	}
}

func (f *fixture) seedSnippet(t *testing.T, owner, title, language string, isPublic bool) string {
	t.Helper()
	s, err := f.snippets.Create(context.Background(), repository.SnippetFields{
		OwnerID: owner, Title: title, Language: language, IsPublic: isPublic,
	})
	require.NoError(t, err)
	return s.ID
}
