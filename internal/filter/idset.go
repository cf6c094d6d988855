package filter

import (
	"maps"
	"slices"
)

// IDSet is a set of entity ids. The zero value is an empty set ready for
// reading; writers go through the copy-returning helpers below.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids, dropping duplicates.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int {
	return len(s)
}

// HasAll reports whether every id is in the set. It is true for no ids.
func (s IDSet) HasAll(ids []string) bool {
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Sorted returns the members in ascending order, never nil.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	maps.Copy(out, s)
	return out
}

func (s IDSet) Equal(other IDSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// xor flips membership of each id in turn. A repeated id flips twice.
func (s IDSet) xor(ids []string) IDSet {
	out := s.Clone()
	for _, id := range ids {
		if out.Has(id) {
			delete(out, id)
		} else {
			out[id] = struct{}{}
		}
	}
	return out
}

// toggleGroup removes every id when all are present and adds all otherwise.
func (s IDSet) toggleGroup(ids []string) IDSet {
	if s.HasAll(ids) {
		return s.without(ids)
	}
	out := s.Clone()
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (s IDSet) without(ids []string) IDSet {
	out := s.Clone()
	for _, id := range ids {
		delete(out, id)
	}
	return out
}
