package domain

// Selection is an ordered set of catalogue item identifiers.
// Insertion order is preserved so that rendering and persistence stay deterministic.
// All operations return a new Selection; the receiver is never modified in place.
type Selection []string

// NewSelection builds a Selection from items, dropping duplicates and empty ids.
func NewSelection(items ...string) Selection {
	var s Selection
	for _, item := range items {
		if item == "" || s.Contains(item) {
			continue
		}
		s = append(s, item)
	}
	return s
}

// Contains reports whether item is part of the selection.
func (s Selection) Contains(item string) bool {
	for _, v := range s {
		if v == item {
			return true
		}
	}
	return false
}

// Len returns the number of selected items.
func (s Selection) Len() int { return len(s) }

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool { return len(s) == 0 }

// Toggle adds item when absent and removes it when present.
func (s Selection) Toggle(item string) Selection {
	if s.Contains(item) {
		return s.Remove(item)
	}
	return s.Union(NewSelection(item))
}

// ToggleExclusive toggles item while honouring mutual-exclusion sentinels.
// Choosing a sentinel resets the selection to just that sentinel. Choosing any other item
// first drops every sentinel, then toggles the item.
func (s Selection) ToggleExclusive(item string, isSentinel func(string) bool) Selection {
	if isSentinel == nil {
		return s.Toggle(item)
	}
	if isSentinel(item) {
		return s.Replace(item)
	}
	kept := make(Selection, 0, len(s))
	for _, v := range s {
		if !isSentinel(v) {
			kept = append(kept, v)
		}
	}
	return kept.Toggle(item)
}

// Remove returns the selection without the given items.
func (s Selection) Remove(items ...string) Selection {
	out := make(Selection, 0, len(s))
	for _, v := range s {
		drop := false
		for _, item := range items {
			if v == item {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, v)
		}
	}
	return out
}

// Union returns the items of s followed by the items of other not already in s.
func (s Selection) Union(other Selection) Selection {
	out := s.Clone()
	for _, v := range other {
		if !out.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// Replace returns a selection holding exactly the given items.
func (s Selection) Replace(items ...string) Selection {
	return NewSelection(items...)
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	copy(out, s)
	return out
}

// Items returns the selection as a plain slice.
func (s Selection) Items() []string {
	return []string(s.Clone())
}
