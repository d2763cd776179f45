// Package view is the filter-sort engine behind the browsing screens.
//
// Partition is a pure function: the controllers feed it the full in-memory
// snippet collection plus the active filter configuration and render what
// comes back. There is no incremental indexing; collections are small
// (hundreds of snippets), so the view is recomputed fresh on every keystroke
// or filter change.
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sakif/snipspace/internal/model"
)

type SortOrder string

const (
	SortRecent SortOrder = "recent" // created_at descending
	SortOldest SortOrder = "oldest" // created_at ascending
	SortName   SortOrder = "name"   // title, locale-aware
)

type Visibility string

const (
	VisibilityAll     Visibility = "all"
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// LanguageAll is the sentinel that disables language filtering.
const LanguageAll = "all"

// Config is one screen's filter state.
type Config struct {
	// Search matches case-insensitively against title and description,
	// and against code when SearchCode is set (the dashboard searches
	// code, the public discovery page does not). Empty = no filtering.
	Search     string
	SearchCode bool

	// Language is an exact match, or LanguageAll.
	Language string

	// Visibility: VisibilityPrivate matches snippets with is_public false.
	Visibility Visibility

	Sort SortOrder
}

// DefaultConfig is the state every screen starts in.
func DefaultConfig() Config {
	return Config{
		SearchCode: true,
		Language:   LanguageAll,
		Visibility: VisibilityAll,
		Sort:       SortRecent,
	}
}

// PartitionedView is the engine's output: pinned snippets on top, the
// filtered and sorted remainder below.
type PartitionedView struct {
	Pinned   []model.Snippet
	Filtered []model.Snippet
}

// Total is the number of visible snippets.
func (v PartitionedView) Total() int {
	return len(v.Pinned) + len(v.Filtered)
}

// Partition splits snippets into pinned and the rest, applies the filters
// and sort to the rest only, and returns both groups as fresh slices.
//
// Pinned snippets bypass every filter: they stay visible no matter what
// the search, language, or visibility settings are.
//
// Sorting is stable: snippets with equal keys keep their incoming relative
// order.
func Partition(snippets []model.Snippet, cfg Config) PartitionedView {
	out := PartitionedView{
		Pinned:   []model.Snippet{},
		Filtered: []model.Snippet{},
	}

	for _, s := range snippets {
		if s.IsPinned {
			out.Pinned = append(out.Pinned, s)
			continue
		}
		if matches(s, cfg) {
			out.Filtered = append(out.Filtered, s)
		}
	}

	sortSnippets(out.Filtered, cfg.Sort)
	return out
}

// Apply filters and sorts every snippet with no pinned split. The public
// discovery feed uses this: pinning is a per-owner affordance and does not
// carry over to other people's view of the feed.
func Apply(snippets []model.Snippet, cfg Config) []model.Snippet {
	out := []model.Snippet{}
	for _, s := range snippets {
		if matches(s, cfg) {
			out = append(out, s)
		}
	}
	sortSnippets(out, cfg.Sort)
	return out
}

func matches(s model.Snippet, cfg Config) bool {
	if cfg.Language != "" && cfg.Language != LanguageAll && s.Language != cfg.Language {
		return false
	}

	switch cfg.Visibility {
	case VisibilityPublic:
		if !s.IsPublic {
			return false
		}
	case VisibilityPrivate:
		if s.IsPublic {
			return false
		}
	}

	query := strings.TrimSpace(cfg.Search)
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(s.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(s.Description), query) {
		return true
	}
	if cfg.SearchCode && strings.Contains(strings.ToLower(s.Code), query) {
		return true
	}
	return false
}

func sortSnippets(snippets []model.Snippet, order SortOrder) {
	switch order {
	case SortName:
		// Locale-aware comparison so titles sort the way a user expects
		// ("apple" before "Banana"), not by raw byte value.
		c := collate.New(language.Und, collate.Loose)
		sort.SliceStable(snippets, func(i, j int) bool {
			return c.CompareString(snippets[i].Title, snippets[j].Title) < 0
		})
	case SortOldest:
		sort.SliceStable(snippets, func(i, j int) bool {
			return snippets[i].CreatedAt.Before(snippets[j].CreatedAt)
		})
	case SortRecent:
		sort.SliceStable(snippets, func(i, j int) bool {
			return snippets[i].CreatedAt.After(snippets[j].CreatedAt)
		})
	}
}

// Languages returns the distinct languages present in the data, sorted.
// The available-languages set is derived from the snippets themselves, so
// an unknown tag in the data shows up as a filter option rather than being
// dropped.
func Languages(snippets []model.Snippet) []string {
	seen := make(map[string]bool, len(snippets))
	var langs []string
	for _, s := range snippets {
		if s.Language == "" || seen[s.Language] {
			continue
		}
		seen[s.Language] = true
		langs = append(langs, s.Language)
	}
	sort.Strings(langs)
	return langs
}

// FilterFolders is the folders page search: a case-insensitive substring
// match over each folder's name and description together.
func FilterFolders(folders []model.Folder, query string) []model.Folder {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]model.Folder{}, folders...)
	}

	out := []model.Folder{}
	for _, f := range folders {
		haystack := strings.ToLower(f.Name + " " + f.Description)
		if strings.Contains(haystack, query) {
			out = append(out, f)
		}
	}
	return out
}
