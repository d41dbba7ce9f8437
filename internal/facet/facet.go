package facet

// Kind identifies which of the four facet lists an item belongs to.
type Kind int

const (
	KindObject Kind = iota
	KindKeyword
	KindSentence
	KindOption
)

// String returns a short name for the kind, used in logs.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindKeyword:
		return "keyword"
	case KindSentence:
		return "sentence"
	case KindOption:
		return "option"
	default:
		return "unknown"
	}
}

// Facet is one selectable labeled item shown to the user.
//
// Selected is the sticky choice mark used by object, option, and keyword
// facets. Playing is the transient marker set on a sentence facet while its
// audio is being spoken; the two are separate bits because they mean
// different things and are cleared on different events.
type Facet struct {
	Label    string
	Selected bool
	Playing  bool
}

// List is an ordered sequence of facets for one kind.
// Labels may repeat; selection is tracked per index, not per label.
type List []Facet

// NewList builds a deselected list from labels.
func NewList(labels []string) List {
	l := make(List, len(labels))
	for i, label := range labels {
		l[i] = Facet{Label: label}
	}
	return l
}

// Labels returns all labels in list order.
func (l List) Labels() []string {
	labels := make([]string, len(l))
	for i, f := range l {
		labels[i] = f.Label
	}
	return labels
}

// SelectedLabels returns labels of selected facets in list order.
// The result is empty (never nil) when nothing is selected.
func (l List) SelectedLabels() []string {
	labels := []string{}
	for _, f := range l {
		if f.Selected {
			labels = append(labels, f.Label)
		}
	}
	return labels
}

// Clone returns an independent copy of the list.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// sameLabels reports whether the list's labels are element-wise equal to labels.
func (l List) sameLabels(labels []string) bool {
	if len(l) != len(labels) {
		return false
	}
	for i, f := range l {
		if f.Label != labels[i] {
			return false
		}
	}
	return true
}

// deselectAll clears every Selected flag in place.
func (l List) deselectAll() {
	for i := range l {
		l[i].Selected = false
	}
}
