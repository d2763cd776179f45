package controller

import (
	"context"
	"sync"

	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/service"
	"github.com/sakif/snipspace/internal/view"
)

// DiscoverController drives the public discovery feed: every public snippet
// from every user, searchable and filterable. Search here skips code, and
// there is no pinned partition; pinning belongs to the owner's dashboard.
type DiscoverController struct {
	snippets *service.SnippetService
	notify   Notifier

	mu      sync.Mutex
	phase   Phase
	loadErr error

	all     []model.Snippet
	cfg     view.Config
	current []model.Snippet
}

func NewDiscoverController(snippets *service.SnippetService, notify Notifier) *DiscoverController {
	cfg := view.DefaultConfig()
	cfg.SearchCode = false
	return &DiscoverController{
		snippets: snippets,
		notify:   notify,
		cfg:      cfg,
	}
}

func (c *DiscoverController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.phase = PhaseLoading
	c.loadErr = nil
	c.mu.Unlock()

	snippets, err := c.snippets.ListPublic(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseError
		c.loadErr = err
		return err
	}
	c.all = snippets
	c.phase = PhaseReady
	c.recomputeLocked()
	return nil
}

func (c *DiscoverController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *DiscoverController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *DiscoverController) View() []model.Snippet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Snippet{}, c.current...)
}

func (c *DiscoverController) Languages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return view.Languages(c.all)
}

func (c *DiscoverController) SetSearch(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Search = query
	c.recomputeLocked()
}

func (c *DiscoverController) SetLanguage(language string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Language = language
	c.recomputeLocked()
}

func (c *DiscoverController) SetSort(order view.SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Sort = order
	c.recomputeLocked()
}

func (c *DiscoverController) recomputeLocked() {
	c.current = view.Apply(c.all, c.cfg)
}
