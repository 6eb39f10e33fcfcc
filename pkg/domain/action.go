package domain

import "fmt"

// ActionKind tags the variant of an option action.
type ActionKind string

const (
	// ActionGoto moves the session to Target.
	ActionGoto ActionKind = "goto"
	// ActionCommand executes the named command; its continuation is the successor.
	ActionCommand ActionKind = "command"
	// ActionURL offers a link and leaves the session where it is.
	ActionURL ActionKind = "url"
)

// Action is the closed variant attached to an option: Goto(node) | Command(name) | URL(href).
// An Action with an empty Kind only commits the option value and follows the node's Next.
type Action struct {
	Kind   ActionKind `json:"kind,omitempty"`
	Target string     `json:"target,omitempty"`
}

// Goto builds a goto action.
func Goto(nodeID string) Action { return Action{Kind: ActionGoto, Target: nodeID} }

// Command builds a command action.
func Command(name string) Action { return Action{Kind: ActionCommand, Target: name} }

// URL builds a link action.
func URL(href string) Action { return Action{Kind: ActionURL, Target: href} }

// ParseAction validates a kind/target pair coming from a definition file.
func ParseAction(kind, target string) (Action, error) {
	switch k := ActionKind(kind); k {
	case "":
		if target != "" {
			return Goto(target), nil
		}
		return Action{}, nil
	case ActionGoto, ActionCommand, ActionURL:
		if target == "" {
			return Action{}, fmt.Errorf("action %q requires a target", kind)
		}
		return Action{Kind: k, Target: target}, nil
	default:
		return Action{}, fmt.Errorf("unknown action %q", kind)
	}
}
