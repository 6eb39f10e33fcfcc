package dsl

import "github.com/aretw0/rapport/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.NodeDefinition
}

// Say makes the node a prompt: it shows text and continues to Next without waiting.
func (n *NodeBuilder) Say(prompt string) *NodeBuilder {
	n.node.Kind = domain.KindPrompt
	n.node.Prompt = prompt
	return n
}

// Ask makes the node a free-text question collecting field.
func (n *NodeBuilder) Ask(field, prompt string) *NodeBuilder {
	n.node.Kind = domain.KindFreeText
	n.node.Field = field
	n.node.Prompt = prompt
	return n
}

// Choose makes the node a single-choice question. Add buttons with Option, Goto, Run or Link.
func (n *NodeBuilder) Choose(prompt string) *NodeBuilder {
	n.node.Kind = domain.KindSingleChoice
	n.node.Prompt = prompt
	return n
}

// Pick makes the node a multi-select over the catalogue group of field.
func (n *NodeBuilder) Pick(field, prompt string) *NodeBuilder {
	n.node.Kind = domain.KindMultiChoice
	n.node.Field = field
	n.node.Prompt = prompt
	return n
}

// Do makes the node an action running command on entry.
func (n *NodeBuilder) Do(command string) *NodeBuilder {
	n.node.Kind = domain.KindAction
	n.node.Command = command
	return n
}

// Field sets the profile field the node owns.
func (n *NodeBuilder) Field(name string) *NodeBuilder {
	n.node.Field = name
	return n
}

// Label sets the display name of the field.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Required marks the field as needed for a complete profile.
func (n *NodeBuilder) Required() *NodeBuilder {
	n.node.Required = true
	return n
}

// Skippable lets the user skip the node.
func (n *NodeBuilder) Skippable() *NodeBuilder {
	n.node.Skippable = true
	return n
}

// Catalog selects the catalogue group of a multi-select node when it differs from the field.
func (n *NodeBuilder) Catalog(group string) *NodeBuilder {
	n.node.Catalog = group
	return n
}

// Validate constrains free-text answers.
func (n *NodeBuilder) Validate(v domain.Validation) *NodeBuilder {
	n.node.Validation = &v
	return n
}

// Option adds a button that commits its id and follows Next.
func (n *NodeBuilder) Option(id, text string) *NodeBuilder {
	n.node.Options = append(n.node.Options, domain.Option{ID: id, Text: text})
	return n
}

// OptionValue adds a button that commits value instead of its id.
func (n *NodeBuilder) OptionValue(id, text, value string) *NodeBuilder {
	n.node.Options = append(n.node.Options, domain.Option{ID: id, Text: text, Value: value})
	return n
}

// Goto adds a button that jumps to target.
func (n *NodeBuilder) Goto(id, text, target string) *NodeBuilder {
	n.node.Options = append(n.node.Options, domain.Option{ID: id, Text: text, Action: domain.Goto(target)})
	return n
}

// Run adds a button that executes command.
func (n *NodeBuilder) Run(id, text, command string) *NodeBuilder {
	n.node.Options = append(n.node.Options, domain.Option{ID: id, Text: text, Action: domain.Command(command)})
	return n
}

// Link adds a button that offers href without moving the session.
func (n *NodeBuilder) Link(id, text, href string) *NodeBuilder {
	n.node.Options = append(n.node.Options, domain.Option{ID: id, Text: text, Action: domain.URL(href)})
	return n
}

// Next sets the successor.
func (n *NodeBuilder) Next(target string) *NodeBuilder {
	n.node.Next = target
	return n
}

// Terminal clears the successor: the flow ends (goes idle) after this node.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.node.Next = ""
	return n
}

// Build returns a copy of the node definition.
func (n *NodeBuilder) Build() domain.NodeDefinition {
	out := n.node
	out.Options = append([]domain.Option(nil), n.node.Options...)
	if n.node.Validation != nil {
		v := *n.node.Validation
		out.Validation = &v
	}
	return out
}
