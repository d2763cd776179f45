package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/rowstore"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "session-token"})
	return New(srv.URL, "anon-key", tokens)
}

func TestSelect_EncodesFiltersAndOrder(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		json.NewEncoder(w).Encode([]rowstore.Row{{"id": "s1"}})
	})

	rows, err := client.Select(context.Background(), rowstore.Query{
		Collection: "snippets",
		Filter: rowstore.Filter{
			Equals: map[string]any{"user_id": "u1", "is_public": true},
			In:     map[string][]any{"id": {"a", "b"}},
		},
		Order: &rowstore.Order{Field: "created_at", Descending: true},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "/rest/v1/snippets", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "eq.u1", q.Get("user_id"))
	assert.Equal(t, "eq.true", q.Get("is_public"))
	assert.Equal(t, "in.(a,b)", q.Get("id"))
	assert.Equal(t, "created_at.desc", q.Get("order"))
	assert.Equal(t, "Bearer session-token", got.Header.Get("Authorization"))
	assert.Equal(t, "anon-key", got.Header.Get("apikey"))
}

func TestInsert_ReturnsRepresentation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var record rowstore.Row
		require.NoError(t, json.NewDecoder(r.Body).Decode(&record))
		record["id"] = "assigned"
		record["created_at"] = "2024-01-01T00:00:00Z"
		json.NewEncoder(w).Encode([]rowstore.Row{record})
	})

	row, err := client.Insert(context.Background(), "folders", rowstore.Row{"name": "utils"})
	require.NoError(t, err)
	assert.Equal(t, "assigned", row["id"])
	assert.Equal(t, "utils", row["name"])
}

func TestInsert_EmptyRepresentationIsRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	_, err := client.Insert(context.Background(), "folders", rowstore.Row{"name": "x"})
	assert.ErrorIs(t, err, apperror.ErrRemote)
}

func TestUpdate_SendsPatchWithFilter(t *testing.T) {
	var got *http.Request
	var patch rowstore.Row
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		json.NewDecoder(r.Body).Decode(&patch)
		w.Write([]byte("[]"))
	})

	err := client.Update(context.Background(), "snippets",
		rowstore.Eq("id", "s1"), rowstore.Row{"is_public": false})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, got.Method)
	assert.Equal(t, "eq.s1", got.URL.Query().Get("id"))
	assert.Equal(t, false, patch["is_public"])
}

func TestErrorStatusBecomesRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	})

	err := client.Delete(context.Background(), "snippets", rowstore.Eq("id", "s1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrRemote)

	var remote *rowstore.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusForbidden, remote.Code)
	assert.Equal(t, "delete", remote.Op)
}

func TestTokenSourceFailureSurfacesBeforeTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the store without a credential")
	}))
	defer srv.Close()

	client := New(srv.URL, "anon-key", failingTokenSource{})
	_, err := client.Select(context.Background(), rowstore.Query{Collection: "snippets"})
	assert.ErrorIs(t, err, apperror.ErrRemote)
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("token expired")
}
