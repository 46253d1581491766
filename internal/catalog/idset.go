package catalog

// IDSet is a workflow-ID constraint with three states: absent (no
// restriction), present and empty (matches nothing), present with IDs.
// The zero value is absent.
type IDSet struct {
	restricted bool
	ids        []string
	index      map[string]struct{}
}

// AnyID returns the absent constraint.
func AnyID() IDSet { return IDSet{} }

// OnlyIDs restricts matches to ids. With no arguments it matches nothing.
// Duplicates are collapsed and first-seen order is kept.
func OnlyIDs(ids ...string) IDSet {
	out := make([]string, 0, len(ids))
	index := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = struct{}{}
		out = append(out, id)
	}
	return IDSet{restricted: true, ids: out, index: index}
}

// Restricted reports whether the set constrains IDs at all.
func (s IDSet) Restricted() bool { return s.restricted }

// Empty reports whether the set is present and matches nothing.
func (s IDSet) Empty() bool { return s.restricted && len(s.ids) == 0 }

// IDs returns the allowed IDs. It is never nil for a restricted set, so it
// can be handed to a store as an "$in" operand.
func (s IDSet) IDs() []string {
	if !s.restricted {
		return nil
	}
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Contains reports whether id passes the constraint.
func (s IDSet) Contains(id string) bool {
	if !s.restricted {
		return true
	}
	_, ok := s.index[id]
	return ok
}

// Intersect narrows s by other. Absent is the identity element; two
// restricted sets keep the IDs present in both, in s's order.
func (s IDSet) Intersect(other IDSet) IDSet {
	switch {
	case !other.restricted:
		return s
	case !s.restricted:
		return other
	}
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if other.Contains(id) {
			out = append(out, id)
		}
	}
	return OnlyIDs(out...)
}

// Union merges two sets. Absent absorbs everything.
func (s IDSet) Union(other IDSet) IDSet {
	if !s.restricted || !other.restricted {
		return AnyID()
	}
	return OnlyIDs(append(s.IDs(), other.ids...)...)
}
