package grocery

import "sort"

// IDSet is a set of recipe or ingredient-line ids.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a member. A nil set has no members.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// HasAll reports whether every id is a member. It is false for an empty ids.
func (s IDSet) HasAll(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Slice returns the members in sorted order.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ToggleChecked returns a copy of checked with originID's membership flipped.
// checked itself is not modified.
func ToggleChecked(checked IDSet, originID string) IDSet {
	next := make(IDSet, len(checked)+1)
	for id := range checked {
		next[id] = struct{}{}
	}
	if next.Has(originID) {
		delete(next, originID)
	} else {
		next[originID] = struct{}{}
	}
	return next
}

// Clear returns an empty checked set.
func Clear() IDSet {
	return IDSet{}
}
