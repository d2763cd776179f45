package controller

import (
	"context"
	"sync"
	"time"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/service"
	"github.com/sakif/snipspace/internal/view"
)

// FoldersController drives the folders page: every folder the user owns,
// newest first, each with its snippet count, searchable by name and
// description.
type FoldersController struct {
	folders *service.FolderService
	ownerID string
	notify  Notifier

	mu      sync.Mutex
	phase   Phase
	loadErr error

	all    []service.FolderSummary
	search string
	dialog DialogState
}

func NewFoldersController(folders *service.FolderService, ownerID string, notify Notifier) *FoldersController {
	return &FoldersController{
		folders: folders,
		ownerID: ownerID,
		notify:  notify,
		dialog:  DialogClosed{},
	}
}

func (c *FoldersController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.phase = PhaseLoading
	c.loadErr = nil
	c.mu.Unlock()

	summaries, err := c.folders.ListWithCounts(ctx, c.ownerID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseError
		c.loadErr = err
		return err
	}
	c.all = summaries
	c.phase = PhaseReady
	return nil
}

func (c *FoldersController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *FoldersController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *FoldersController) SetSearch(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = query
}

// Visible returns the folders matching the current search, counts attached,
// in the loaded (newest-first) order.
func (c *FoldersController) Visible() []service.FolderSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	folders := make([]model.Folder, len(c.all))
	counts := make(map[string]int, len(c.all))
	for i, s := range c.all {
		folders[i] = s.Folder
		counts[s.ID] = s.SnippetCount
	}

	matched := view.FilterFolders(folders, c.search)
	out := make([]service.FolderSummary, len(matched))
	for i, f := range matched {
		out[i] = service.FolderSummary{Folder: f, SnippetCount: counts[f.ID]}
	}
	return out
}

// Create adds a folder and puts it at the top of the list on success.
func (c *FoldersController) Create(ctx context.Context, name, description string) (model.Folder, error) {
	folder, err := c.folders.Create(ctx, c.ownerID, name, description)
	if err != nil {
		c.notify.Error("failed to create folder")
		return model.Folder{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = append([]service.FolderSummary{{Folder: *folder}}, c.all...)
	c.notify.Success("folder created")
	return *folder, nil
}

func (c *FoldersController) OpenRenameDialog(folderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialog = DialogRenameFolder{FolderID: folderID}
}

func (c *FoldersController) OpenDeleteDialog(folderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialog = DialogConfirmDelete{TargetID: folderID}
}

func (c *FoldersController) Dialog() DialogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog
}

func (c *FoldersController) CloseDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialog = DialogClosed{}
}

// Rename confirms the rename dialog. Local state updates only after the
// store accepts the new name.
func (c *FoldersController) Rename(ctx context.Context, name string) error {
	c.mu.Lock()
	dlg, ok := c.dialog.(DialogRenameFolder)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	if err := c.folders.Rename(ctx, dlg.FolderID, name); err != nil {
		c.notify.Error("failed to rename folder")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.all {
		if c.all[i].ID == dlg.FolderID {
			c.all[i].Name = name
			break
		}
	}
	c.dialog = DialogClosed{}
	c.notify.Success("folder renamed")
	return nil
}

// Delete confirms the delete dialog. Snippets inside the folder are not
// touched; only the folder goes away.
func (c *FoldersController) Delete(ctx context.Context) error {
	c.mu.Lock()
	dlg, ok := c.dialog.(DialogConfirmDelete)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	if err := c.folders.Delete(ctx, dlg.TargetID); err != nil {
		c.notify.Error("failed to delete folder")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.all {
		if c.all[i].ID == dlg.TargetID {
			c.all = append(c.all[:i], c.all[i+1:]...)
			break
		}
	}
	c.dialog = DialogClosed{}
	c.notify.Success("folder deleted")
	return nil
}

// FolderDetailController drives a single folder's page: the folder record,
// its resolved snippets, a selection editor, and the same optimistic
// visibility toggle the dashboard has.
type FolderDetailController struct {
	folders  *service.FolderService
	snippets *service.SnippetService
	folderID string
	notify   Notifier

	mu      sync.Mutex
	phase   Phase
	loadErr error

	folder   model.Folder
	contents []model.Snippet

	selected string
	ed       editor

	toggles *toggleTokens
}

func NewFolderDetailController(
	folders *service.FolderService,
	snippets *service.SnippetService,
	folderID string,
	notify Notifier,
) *FolderDetailController {
	return &FolderDetailController{
		folders:  folders,
		snippets: snippets,
		folderID: folderID,
		notify:   notify,
		toggles:  newToggleTokens(),
	}
}

// Load fetches the folder record and resolves its contents. An empty folder
// resolves without a snippet fetch.
func (c *FolderDetailController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.phase = PhaseLoading
	c.loadErr = nil
	c.mu.Unlock()

	folder, err := c.folders.Get(ctx, c.folderID)
	if err == nil {
		var contents []model.Snippet
		contents, err = c.folders.Contents(ctx, c.folderID)
		if err == nil {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.folder = *folder
			c.contents = contents
			c.phase = PhaseReady
			return nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseError
	c.loadErr = err
	return err
}

func (c *FolderDetailController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *FolderDetailController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *FolderDetailController) Folder() model.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.folder
}

func (c *FolderDetailController) Contents() []model.Snippet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Snippet{}, c.contents...)
}

// Rename updates the folder name; local state changes only on success.
func (c *FolderDetailController) Rename(ctx context.Context, name string) error {
	if err := c.folders.Rename(ctx, c.folderID, name); err != nil {
		c.notify.Error("failed to rename folder")
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.folder.Name = name
	c.notify.Success("folder renamed")
	return nil
}

// DeleteFolder removes the folder itself. Its snippets survive; the caller
// navigates away afterwards.
func (c *FolderDetailController) DeleteFolder(ctx context.Context) error {
	if err := c.folders.Delete(ctx, c.folderID); err != nil {
		c.notify.Error("failed to delete folder")
		return err
	}
	c.notify.Success("folder deleted")
	return nil
}

// Remove takes the snippet out of this folder. The snippet itself survives.
func (c *FolderDetailController) Remove(ctx context.Context, snippetID string) error {
	if err := c.folders.RemoveFromFolder(ctx, snippetID, c.folderID); err != nil {
		c.notify.Error("failed to remove snippet from folder")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.contents {
		if s.ID == snippetID {
			c.contents = append(c.contents[:i], c.contents[i+1:]...)
			break
		}
	}
	if c.selected == snippetID {
		c.selected = ""
		c.ed = editor{}
	}
	c.notify.Success("snippet removed from folder")
	return nil
}

func (c *FolderDetailController) Select(id string) {
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

func (c *FolderDetailController) SetDraftCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected != "" {
		c.ed.draftCode = code
	}
}

// SaveSelected writes the draft through; the local record picks up the new
// values only after the store accepts them.
func (c *FolderDetailController) SaveSelected(ctx context.Context) error {
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
	c.notify.Success("snippet saved")
	return nil
}

// ToggleVisibility works exactly like the dashboard's: flip first, revert
// on failure, discard stale responses.
func (c *FolderDetailController) ToggleVisibility(ctx context.Context, id string) error {
	c.mu.Lock()
	s := c.findLocked(id)
	if s == nil {
		c.mu.Unlock()
		return apperror.NotFound("snippet", id)
	}
	target := !s.IsPublic
	s.IsPublic = target
	token := c.toggles.next(id)
	c.mu.Unlock()

	err := c.snippets.SetVisibility(ctx, id, target)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.toggles.isCurrent(id, token) {
		return nil
	}
	if err != nil {
		if s := c.findLocked(id); s != nil {
			s.IsPublic = !target
		}
		c.notify.Error("failed to update visibility")
		return err
	}
	return nil
}

func (c *FolderDetailController) findLocked(id string) *model.Snippet {
	if id == "" {
		return nil
	}
	for i := range c.contents {
		if c.contents[i].ID == id {
			return &c.contents[i]
		}
	}
	return nil
}
