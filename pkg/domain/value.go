package domain

import "strings"

// Value is a committed profile field.
// A field holds either free text or a set of catalogue items, never both.
type Value struct {
	Text  string    `json:"text,omitempty"`
	Items Selection `json:"items,omitempty"`
}

// TextValue wraps a free-text answer.
func TextValue(text string) Value {
	return Value{Text: text}
}

// ItemsValue wraps a multi-select answer.
func ItemsValue(items Selection) Value {
	return Value{Items: items.Clone()}
}

// IsEmpty reports whether the value carries no answer.
// For multi-select fields a value is non-empty once at least one item is selected.
func (v Value) IsEmpty() bool {
	return strings.TrimSpace(v.Text) == "" && v.Items.IsEmpty()
}

// IsMulti reports whether the value holds a selection.
func (v Value) IsMulti() bool {
	return !v.Items.IsEmpty()
}

// String renders the value for prompt interpolation.
func (v Value) String() string {
	if v.IsMulti() {
		return strings.Join(v.Items, ", ")
	}
	return v.Text
}

// Clone returns an independent copy.
func (v Value) Clone() Value {
	return Value{Text: v.Text, Items: v.Items.Clone()}
}

// Profile is the set of committed fields of a session.
type Profile map[string]Value

// Get returns the value of field, or the zero Value.
func (p Profile) Get(field string) Value {
	if p == nil {
		return Value{}
	}
	return p[field]
}

// Has reports whether field holds a non-empty answer.
func (p Profile) Has(field string) bool {
	return !p.Get(field).IsEmpty()
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v.Clone()
	}
	return out
}
