package facet

import "sync"

// Store holds the facet lists and selection state for one interaction page.
//
// Lists are replaced wholesale by ReplaceAll and Reset; clicks only flip
// flags inside them. The store is safe for concurrent use because playback
// completion callbacks arrive on their own goroutine.
type Store struct {
	mu sync.Mutex

	catalog []string

	rootKey    string
	hasRootKey bool

	objects   List
	keywords  List
	sentences List
	options   List

	// audioRefs is aligned by index with sentences. An empty entry means no
	// cached audio for that sentence.
	audioRefs []string

	overwriteObjects bool
}

// NewStore creates an empty store whose options panel is seeded from catalog.
// A nil catalog falls back to DefaultCatalog.
func NewStore(catalog []string) *Store {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	s := &Store{catalog: catalog}
	s.Reset()
	return s
}

// ReplaceAll atomically swaps the server-owned lists and metadata.
//
// Two exceptions soften the swap:
//   - overwriteObjects=false keeps the prior object list and its selection
//     marks; the incoming objects are ignored for that facet.
//   - an incoming keyword sequence element-wise equal to the current one
//     keeps the current keyword selection flags.
//
// An objects value of exactly [""] is the server's way of saying "nothing
// detected" and is treated as an empty list.
func (s *Store) ReplaceAll(objects, keywords, sentences, audioRefs []string, rootKey string, overwriteObjects bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(objects) == 1 && objects[0] == "" {
		objects = nil
	}

	if overwriteObjects {
		s.objects = NewList(objects)
	}

	if !s.keywords.sameLabels(keywords) {
		s.keywords = NewList(keywords)
	}

	s.sentences = NewList(sentences)
	s.audioRefs = append([]string(nil), audioRefs...)

	s.rootKey = rootKey
	s.hasRootKey = true
	s.overwriteObjects = overwriteObjects
}

// ToggleSelection flips the Selected flag at index in the given list.
//
// Out-of-bounds indexes and sentence facets are silent no-ops: sentence
// clicks never toggle selection, they only drive playback. Toggling an
// object or option clears every keyword selection, since the keyword
// context belongs to the previous object choice.
func (s *Store) ToggleSelection(kind Kind, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.list(kind)
	if kind == KindSentence || l == nil || index < 0 || index >= len(*l) {
		return
	}

	(*l)[index].Selected = !(*l)[index].Selected

	if kind == KindObject || kind == KindOption {
		s.keywords.deselectAll()
	}
}

// SelectedLabels returns the selected labels of one list in order.
func (s *Store) SelectedLabels(kind Kind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.list(kind)
	if l == nil {
		return []string{}
	}
	return l.SelectedLabels()
}

// Reset returns the store to its initial empty state with the options
// panel reseeded from the catalog, all deselected.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects = List{}
	s.keywords = List{}
	s.sentences = List{}
	s.audioRefs = nil
	s.rootKey = ""
	s.hasRootKey = false
	s.overwriteObjects = false
	s.options = NewList(s.catalog)
}

// ResetOptions reseeds the options panel alone, deselected.
// A camera press does this before capturing so stale manual picks do not
// leak into the detection request.
func (s *Store) ResetOptions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = NewList(s.catalog)
}

// ClearAudioRefs drops the cached audio handles. Object and keyword clicks
// call this because the sentences about to be replaced make them stale.
func (s *Store) ClearAudioRefs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioRefs = nil
}

// ClearRootKey drops the server correlation id. The ignore action uses this
// to request "no specific object" semantics.
func (s *Store) ClearRootKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rootKey = ""
	s.hasRootKey = false
}

// ClearKeywordSelections deselects every keyword.
func (s *Store) ClearKeywordSelections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords.deselectAll()
}

// ClearObjectSelections deselects every object and option.
func (s *Store) ClearObjectSelections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects.deselectAll()
	s.options.deselectAll()
}

// SetOverwriteObjects records whether the next server response may replace
// the object list. Any facet press forces it to false.
func (s *Store) SetOverwriteObjects(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overwriteObjects = v
}

// OverwriteObjects reports the current overwrite flag.
func (s *Store) OverwriteObjects() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overwriteObjects
}

// AudioRef returns the cached audio handle for the index-th sentence.
// ok is false when there is no handle for that index.
func (s *Store) AudioRef(index int) (ref string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.audioRefs) || s.audioRefs[index] == "" {
		return "", false
	}
	return s.audioRefs[index], true
}

// SetPlaying sets or clears the Playing marker on the index-th sentence.
// Out-of-bounds indexes are ignored.
func (s *Store) SetPlaying(index int, playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sentences) {
		return
	}
	s.sentences[index].Playing = playing
}

// ClearPlaying clears the Playing marker on every sentence.
func (s *Store) ClearPlaying() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sentences {
		s.sentences[i].Playing = false
	}
}

// RootKey returns the server correlation id and whether one is set.
func (s *Store) RootKey() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootKey, s.hasRootKey
}

// Label returns the label at index in the given list, or "" out of bounds.
func (s *Store) Label(kind Kind, index int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.list(kind)
	if l == nil || index < 0 || index >= len(*l) {
		return ""
	}
	return (*l)[index].Label
}

// Snapshot returns independent copies of all four lists for rendering.
func (s *Store) Snapshot() (objects, keywords, sentences, options List) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects.Clone(), s.keywords.Clone(), s.sentences.Clone(), s.options.Clone()
}

// Len returns the size of one list.
func (s *Store) Len(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.list(kind)
	if l == nil {
		return 0
	}
	return len(*l)
}

func (s *Store) list(kind Kind) *List {
	switch kind {
	case KindObject:
		return &s.objects
	case KindKeyword:
		return &s.keywords
	case KindSentence:
		return &s.sentences
	case KindOption:
		return &s.options
	default:
		return nil
	}
}
