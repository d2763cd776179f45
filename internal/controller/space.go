package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository"
	"github.com/sakif/snipspace/internal/service"
	"github.com/sakif/snipspace/internal/view"
)

// SpaceController drives the owner's dashboard: the full snippet collection
// with the pinned partition on top, filters, the selection editor, the
// folder-link dialog, and the optimistic visibility toggle.
type SpaceController struct {
	snippets *service.SnippetService
	folders  *service.FolderService
	ownerID  string
	notify   Notifier

	mu      sync.Mutex
	phase   Phase
	loadErr error

	all     []model.Snippet
	cfg     view.Config
	current view.PartitionedView

	selected string
	ed       editor

	dialog        DialogState
	dialogFolders []model.Folder
	pendingLink   *apperror.PartialLinkError

	toggles *toggleTokens
}

func NewSpaceController(
	snippets *service.SnippetService,
	folders *service.FolderService,
	ownerID string,
	notify Notifier,
) *SpaceController {
	return &SpaceController{
		snippets: snippets,
		folders:  folders,
		ownerID:  ownerID,
		notify:   notify,
		cfg:      view.DefaultConfig(),
		dialog:   DialogClosed{},
		toggles:  newToggleTokens(),
	}
}

// Load fetches the owner's collection and moves the screen to Ready, or to
// Error with the cause kept for rendering. Load can be called again after a
// failure to retry.
func (c *SpaceController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.phase = PhaseLoading
	c.loadErr = nil
	c.mu.Unlock()

	snippets, err := c.snippets.ListOwned(ctx, c.ownerID)

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

func (c *SpaceController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *SpaceController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// View returns the current pinned/filtered partition.
func (c *SpaceController) View() view.PartitionedView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *SpaceController) Config() view.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Languages lists the filter options derived from the loaded collection.
func (c *SpaceController) Languages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return view.Languages(c.all)
}

func (c *SpaceController) SetSearch(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Search = query
	c.recomputeLocked()
}

func (c *SpaceController) SetLanguage(language string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Language = language
	c.recomputeLocked()
}

func (c *SpaceController) SetVisibility(v view.Visibility) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Visibility = v
	c.recomputeLocked()
}

func (c *SpaceController) SetSort(order view.SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Sort = order
	c.recomputeLocked()
}

func (c *SpaceController) ResetFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = view.DefaultConfig()
	c.recomputeLocked()
}

// Select makes the snippet the active one and seeds the editor draft from
// its stored values. Selecting a different snippet discards any unsaved
// draft. An unknown id clears the selection.
func (c *SpaceController) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.findLocked(id)
	if s == nil {
		c.selected = ""
		c.ed = editor{}
		return
	}
	c.selected = id
	c.ed = editor{draftCode: s.Code, draftPublic: s.IsPublic}
}

func (c *SpaceController) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
	c.ed = editor{}
}

// Selected returns a copy of the active snippet, if any.
func (c *SpaceController) Selected() (model.Snippet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.findLocked(c.selected)
	if s == nil {
		return model.Snippet{}, false
	}
	return *s, true
}

func (c *SpaceController) SetDraftCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected != "" {
		c.ed.draftCode = code
	}
}

func (c *SpaceController) SetDraftVisibility(isPublic bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected != "" {
		c.ed.draftPublic = isPublic
	}
}

// Draft returns the editor's working copy and whether a save is in flight.
func (c *SpaceController) Draft() (code string, isPublic bool, saving bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ed.draftCode, c.ed.draftPublic, c.ed.saving
}

// SaveSelected writes the draft to the store. Local state changes only
// after the write succeeds; a failed save leaves the collection exactly as
// it was, draft included, so the user can retry.
func (c *SpaceController) SaveSelected(ctx context.Context) error {
	c.mu.Lock()
	if c.selected == "" || c.ed.saving {
		c.mu.Unlock()
		return nil
	}
	id := c.selected
	code, isPublic := c.ed.draftCode, c.ed.draftPublic
	c.ed.saving = true
	c.mu.Unlock()

	err := c.snippets.Save(ctx, id, code, isPublic)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ed.saving = false
	if err != nil {
		c.notify.Error("failed to save snippet")
		return err
	}
	if s := c.findLocked(id); s != nil {
		s.Code = code
		s.IsPublic = isPublic
		s.UpdatedAt = time.Now().UTC()
	}
	c.recomputeLocked()
	c.notify.Success("snippet saved")
	return nil
}

// Create inserts a new snippet for the owner and puts it at the top of the
// collection on success.
func (c *SpaceController) Create(ctx context.Context, title, description, code, language string, isPublic bool) (model.Snippet, error) {
	s, err := c.snippets.Create(ctx, repository.SnippetFields{
		OwnerID:     c.ownerID,
		Title:       title,
		Description: description,
		Code:        code,
		Language:    language,
		IsPublic:    isPublic,
	})
	if err != nil {
		c.notify.Error("failed to create snippet")
		return model.Snippet{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = append([]model.Snippet{*s}, c.all...)
	c.recomputeLocked()
	c.notify.Success("snippet created")
	return *s, nil
}

// Delete removes the snippet from the store and, on success, from the local
// collection. A deleted selection is cleared.
func (c *SpaceController) Delete(ctx context.Context, id string) error {
	if err := c.snippets.Delete(ctx, id); err != nil {
		c.notify.Error("failed to delete snippet")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.all {
		if s.ID == id {
			c.all = append(c.all[:i], c.all[i+1:]...)
			break
		}
	}
	if c.selected == id {
		c.selected = ""
		c.ed = editor{}
	}
	c.recomputeLocked()
	c.notify.Success("snippet deleted")
	return nil
}

// ToggleVisibility flips the snippet's visibility locally first, then
// confirms with the store. On failure the flip is reverted. When toggles
// overlap for the same snippet, only the latest one's response is applied;
// earlier responses are stale and ignored.
func (c *SpaceController) ToggleVisibility(ctx context.Context, id string) error {
	c.mu.Lock()
	s := c.findLocked(id)
	if s == nil {
		c.mu.Unlock()
		return apperror.NotFound("snippet", id)
	}
	target := !s.IsPublic
	s.IsPublic = target
	c.recomputeLocked()
	token := c.toggles.next(id)
	c.mu.Unlock()

	err := c.snippets.SetVisibility(ctx, id, target)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.toggles.isCurrent(id, token) {
		// A newer toggle owns the state now.
		return nil
	}
	if err != nil {
		if s := c.findLocked(id); s != nil {
			s.IsPublic = !target
		}
		c.recomputeLocked()
		c.notify.Error("failed to update visibility")
		return err
	}
	return nil
}

// OpenLinkDialog loads the owner's folders (oldest first, the picker order)
// and opens the folder picker for the snippet.
func (c *SpaceController) OpenLinkDialog(ctx context.Context, snippetID string) error {
	folders, err := c.folders.ListOwned(ctx, c.ownerID, repository.OrderOldestFirst)
	if err != nil {
		c.notify.Error("failed to load folders")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialog = DialogLinkFolder{SnippetID: snippetID}
	c.dialogFolders = folders
	c.pendingLink = nil
	return nil
}

func (c *SpaceController) Dialog() DialogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog
}

// DialogFolders lists the picker's folder choices.
func (c *SpaceController) DialogFolders() []model.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Folder{}, c.dialogFolders...)
}

func (c *SpaceController) CloseDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialog = DialogClosed{}
	c.dialogFolders = nil
	c.pendingLink = nil
}

// LinkToFolder links the dialog's snippet into an existing folder and
// closes the dialog on success.
func (c *SpaceController) LinkToFolder(ctx context.Context, folderID string) error {
	c.mu.Lock()
	link, ok := c.dialog.(DialogLinkFolder)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	if err := c.folders.AddToFolder(ctx, link.SnippetID, folderID); err != nil {
		c.notify.Error("failed to add snippet to folder")
		return err
	}

	c.CloseDialog()
	c.notify.Success("snippet added to folder")
	return nil
}

// CreateFolderAndLink runs the two-step create-then-link workflow from the
// dialog. When only the create lands, the dialog stays open with the
// partial outcome retained so RetryLink can finish the job.
func (c *SpaceController) CreateFolderAndLink(ctx context.Context, name string) error {
	c.mu.Lock()
	link, ok := c.dialog.(DialogLinkFolder)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	folder, err := c.folders.CreateAndLink(ctx, c.ownerID, name, link.SnippetID)

	var partial *apperror.PartialLinkError
	switch {
	case err == nil:
		c.CloseDialog()
		c.notify.Success("folder created and snippet added")
		return nil
	case errors.As(err, &partial):
		c.mu.Lock()
		c.pendingLink = partial
		if folder != nil {
			c.dialogFolders = append(c.dialogFolders, *folder)
		}
		c.mu.Unlock()
		c.notify.Error("folder created, but the snippet was not added; retry to finish")
		return err
	default:
		c.notify.Error("failed to create folder")
		return err
	}
}

// PendingLink reports the unfinished link from a partial create-and-link,
// if there is one.
func (c *SpaceController) PendingLink() (*apperror.PartialLinkError, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLink, c.pendingLink != nil
}

// RetryLink retries just the link step of a partial create-and-link.
func (c *SpaceController) RetryLink(ctx context.Context) error {
	c.mu.Lock()
	partial := c.pendingLink
	c.mu.Unlock()
	if partial == nil {
		return nil
	}

	if err := c.folders.AddToFolder(ctx, partial.SnippetID, partial.FolderID); err != nil {
		c.notify.Error("failed to add snippet to folder")
		return err
	}

	c.CloseDialog()
	c.notify.Success("snippet added to folder")
	return nil
}

func (c *SpaceController) recomputeLocked() {
	c.current = view.Partition(c.all, c.cfg)
}

func (c *SpaceController) findLocked(id string) *model.Snippet {
	if id == "" {
		return nil
	}
	for i := range c.all {
		if c.all[i].ID == id {
			return &c.all[i]
		}
	}
	return nil
}
