package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/repository"
	"github.com/sakif/snipspace/internal/view"
)

func TestDiscoverLoad_OnlyPublic(t *testing.T) {
	f := newFixture(t)
	f.seedSnippet(t, "u1", "shared go", "go", true)
	f.seedSnippet(t, "u1", "private go", "go", false)
	f.seedSnippet(t, "u2", "shared py", "python", true)

	c := NewDiscoverController(f.snippets, f.notify)
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, PhaseReady, c.Phase())

	got := c.View()
	require.Len(t, got, 2, "private snippets never reach the feed")
	for _, s := range got {
		assert.True(t, s.IsPublic)
	}
	assert.Equal(t, []string{"go", "python"}, c.Languages())
}

func TestDiscoverSearchSkipsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.snippets.Create(ctx, repository.SnippetFields{
		OwnerID: "u1", Title: "match in title needle", Language: "go", IsPublic: true,
	})
	require.NoError(t, err)
	_, err = f.snippets.Create(ctx, repository.SnippetFields{
		OwnerID: "u1", Title: "match in code only", Code: "needle", Language: "go", IsPublic: true,
	})
	require.NoError(t, err)

	c := NewDiscoverController(f.snippets, f.notify)
	require.NoError(t, c.Load(ctx))

	c.SetSearch("needle")
	got := c.View()
	require.Len(t, got, 1, "feed search does not look inside code")
	assert.Equal(t, "match in title needle", got[0].Title)
}

func TestDiscoverLanguageAndSort(t *testing.T) {
	f := newFixture(t)
	f.seedSnippet(t, "u1", "older", "go", true)
	f.seedSnippet(t, "u2", "newer", "go", true)
	f.seedSnippet(t, "u2", "python one", "python", true)

	c := NewDiscoverController(f.snippets, f.notify)
	require.NoError(t, c.Load(context.Background()))

	c.SetLanguage("go")
	got := c.View()
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Title, "recent sort by default")

	c.SetSort(view.SortOldest)
	got = c.View()
	assert.Equal(t, "older", got[0].Title)
}

func TestDiscoverPinnedGetsNoSpecialTreatment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.seedSnippet(t, "u1", "pinned by owner", "go", true)
	require.NoError(t, f.snippets.SetVisibility(ctx, sid, true))

	c := NewDiscoverController(f.snippets, f.notify)
	require.NoError(t, c.Load(ctx))

	c.SetLanguage("python")
	assert.Empty(t, c.View(), "a filtered-out snippet stays out, pinned or not")
}

func TestDiscoverLoadFailure(t *testing.T) {
	f := newFixture(t)
	f.client.failOn("select", "snippets")

	c := NewDiscoverController(f.snippets, f.notify)
	err := c.Load(context.Background())
	assert.ErrorIs(t, err, apperror.ErrRemote)
	assert.Equal(t, PhaseError, c.Phase())
}
