// Package controller holds the view-state machines behind each screen.
//
// A controller owns one screen's state: the loaded collection, the active
// filter configuration, the selection and editor drafts, and whichever
// dialog is open. All state lives behind a mutex; methods take a
// context.Context when they touch the store and return the error so the
// caller can decide what to render, while user-facing outcomes additionally
// go through the Notifier.
package controller

import "log/slog"

// Phase is a screen's load state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// DialogState is a closed set of dialog variants. Exactly one variant is
// active at a time; DialogClosed means none. Modeling the dialog as a tagged
// union instead of a handful of independent booleans makes an
// impossible state (two dialogs open at once) unrepresentable.
type DialogState interface {
	isDialog()
}

// DialogClosed is the resting state.
type DialogClosed struct{}

// DialogLinkFolder is the folder-picker for one snippet.
type DialogLinkFolder struct {
	SnippetID string
}

// DialogRenameFolder is the rename prompt for one folder.
type DialogRenameFolder struct {
	FolderID string
}

// DialogConfirmDelete asks before a destructive delete.
type DialogConfirmDelete struct {
	TargetID string
}

func (DialogClosed) isDialog()        {}
func (DialogLinkFolder) isDialog()    {}
func (DialogRenameFolder) isDialog()  {}
func (DialogConfirmDelete) isDialog() {}

// Notifier receives user-facing outcome messages (the toast layer).
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier writes notifications to a structured logger. It is the default
// sink when no UI is attached, and what the demo CLI uses.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(message string) {
	n.logger.Info("notification", "kind", "success", "message", message)
}

func (n *LogNotifier) Error(message string) {
	n.logger.Warn("notification", "kind", "error", "message", message)
}

// editor is the draft state for the selected snippet. The draft starts from
// the snippet's stored values on selection and is discarded on deselect or
// reselect; it reaches the store only through an explicit save.
type editor struct {
	draftCode   string
	draftPublic bool
	saving      bool
}

// toggleTokens hands out a monotonically increasing token per snippet for
// the optimistic visibility toggle. When the store's response comes back,
// only the holder of the latest token may touch state; earlier in-flight
// toggles for the same snippet are stale and their responses are discarded.
type toggleTokens struct {
	tokens map[string]uint64
}

func newToggleTokens() *toggleTokens {
	return &toggleTokens{tokens: make(map[string]uint64)}
}

func (t *toggleTokens) next(id string) uint64 {
	t.tokens[id]++
	return t.tokens[id]
}

func (t *toggleTokens) isCurrent(id string, token uint64) bool {
	return t.tokens[id] == token
}
