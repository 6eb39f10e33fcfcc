package loam

// NodeMetadata is the frontmatter of a markdown node document.
// The markdown body becomes the node prompt when no prompt key is set.
type NodeMetadata struct {
	ID         string         `json:"id" mapstructure:"id"`
	Kind       string         `json:"kind" mapstructure:"kind"`
	Type       string         `json:"type" mapstructure:"type"`
	Prompt     string         `json:"prompt" mapstructure:"prompt"`
	Field      string         `json:"field" mapstructure:"field"`
	Required   bool           `json:"required" mapstructure:"required"`
	Label      string         `json:"label" mapstructure:"label"`
	Options    []LoaderOption `json:"options" mapstructure:"options"`
	Validation map[string]any `json:"validation" mapstructure:"validation"`
	Next       string         `json:"next" mapstructure:"next"`
	To         string         `json:"to" mapstructure:"to"`
	Skippable  bool           `json:"skippable" mapstructure:"skippable"`
	Command    string         `json:"command" mapstructure:"command"`
	Catalog    string         `json:"catalog" mapstructure:"catalog"`
}

// LoaderOption is one button declared in frontmatter.
type LoaderOption struct {
	ID      string `json:"id" mapstructure:"id"`
	Text    string `json:"text" mapstructure:"text"`
	Value   string `json:"value" mapstructure:"value"`
	Action  any    `json:"action" mapstructure:"action"`
	Target  string `json:"target" mapstructure:"target"`
	Goto    string `json:"goto" mapstructure:"goto"`
	JumpTo  string `json:"jump_to" mapstructure:"jump_to"`
	Command string `json:"command" mapstructure:"command"`
	URL     string `json:"url" mapstructure:"url"`
}
