package domain

import "fmt"

// NodeKind defines how a node consumes input.
type NodeKind string

const (
	// KindPrompt displays content and continues immediately (soft step).
	KindPrompt NodeKind = "prompt"
	// KindSingleChoice waits for one button press.
	KindSingleChoice NodeKind = "single_choice"
	// KindMultiChoice drives a category drill-down multi-select.
	KindMultiChoice NodeKind = "multi_choice"
	// KindFreeText waits for a typed answer.
	KindFreeText NodeKind = "free_text"
	// KindAction runs a command on entry and continues with its result.
	KindAction NodeKind = "action"
)

// ParseNodeKind validates a kind name.
func ParseNodeKind(s string) (NodeKind, error) {
	switch k := NodeKind(s); k {
	case KindPrompt, KindSingleChoice, KindMultiChoice, KindFreeText, KindAction:
		return k, nil
	case "":
		return KindPrompt, nil
	default:
		return "", fmt.Errorf("unknown node kind %q", s)
	}
}

// WaitsForInput reports whether a session can rest on a node of this kind.
func (k NodeKind) WaitsForInput() bool {
	return k == KindSingleChoice || k == KindMultiChoice || k == KindFreeText
}

// SemanticType is the format a free-text answer must satisfy.
type SemanticType string

const (
	TypeText   SemanticType = "text"
	TypeNumber SemanticType = "number"
	TypeEmail  SemanticType = "email"
	TypePhone  SemanticType = "phone"
	TypeHandle SemanticType = "handle"
)

// Validation constrains a free-text answer.
// Length bounds are checked before the semantic type.
type Validation struct {
	MinLength int          `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength int          `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern   string       `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Type      SemanticType `json:"type,omitempty" yaml:"type,omitempty"`

	// Min and Max bound numeric answers (inclusive). Nil means unbounded.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Host is stripped from handle answers given as links (e.g. "t.me").
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Message overrides the default retry text.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Option is one selectable button of a choice node.
type Option struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Value  string `json:"value,omitempty"`
	Action Action `json:"action"`
}

// NodeDefinition is an immutable step of the dialogue graph.
type NodeDefinition struct {
	ID     string   `json:"id"`
	Kind   NodeKind `json:"kind"`
	Prompt string   `json:"prompt"`

	// Field is the profile field this node owns, if any.
	Field    string `json:"field,omitempty"`
	Required bool   `json:"required,omitempty"`
	Label    string `json:"label,omitempty"`

	Options    []Option    `json:"options,omitempty"`
	Validation *Validation `json:"validation,omitempty"`

	// Next is the successor after a successful commit. Empty means terminal.
	Next      string `json:"next,omitempty"`
	Skippable bool   `json:"skippable,omitempty"`

	// Command is executed when entering an action node.
	Command string `json:"command,omitempty"`

	// Catalog names the catalogue group of a multi-choice node (defaults to Field).
	Catalog string `json:"catalog,omitempty"`
}

// FindOption looks up an option by id, falling back to its value.
func (n *NodeDefinition) FindOption(id string) (Option, bool) {
	for _, opt := range n.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	for _, opt := range n.Options {
		if opt.Value != "" && opt.Value == id {
			return opt, true
		}
	}
	return Option{}, false
}

// CatalogKey returns the catalogue group used by a multi-choice node.
func (n *NodeDefinition) CatalogKey() string {
	if n.Catalog != "" {
		return n.Catalog
	}
	return n.Field
}

// Targets lists every node id this node can transition to.
func (n *NodeDefinition) Targets() []string {
	var out []string
	if n.Next != "" {
		out = append(out, n.Next)
	}
	for _, opt := range n.Options {
		if opt.Action.Kind == ActionGoto && opt.Action.Target != "" {
			out = append(out, opt.Action.Target)
		}
	}
	return out
}
