package facet

import "strings"

// Engine derives request parameters from a store's selection state.
// It holds a read/derive reference only; list identity is never replaced
// from here.
type Engine struct {
	store *Store
}

// NewEngine creates a selection engine over store.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// CurrentObjectString returns the comma-joined union of selected objects and
// selected options, object-list order first. Empty when nothing is selected.
func (e *Engine) CurrentObjectString() string {
	names := e.store.SelectedLabels(KindObject)
	names = append(names, e.store.SelectedLabels(KindOption)...)
	return strings.Join(names, ",")
}

// CurrentKeywordString returns the comma-joined selected keywords.
func (e *Engine) CurrentKeywordString() string {
	return strings.Join(e.store.SelectedLabels(KindKeyword), ",")
}

// ShouldOverwriteOnServerResponse passes through the server-declared
// overwrite flag. Kept as its own seam so tests can assert the flag is
// honored independent of transport.
func (e *Engine) ShouldOverwriteOnServerResponse(owo bool) bool {
	return owo
}
