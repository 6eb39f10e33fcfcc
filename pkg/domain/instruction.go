package domain

// InstructionKind tells the presentation collaborator what to do with an Instruction.
type InstructionKind string

const (
	// InstructionPrompt renders a node prompt and waits for input.
	InstructionPrompt InstructionKind = "prompt"
	// InstructionRetry re-renders the current node with a validation message.
	InstructionRetry InstructionKind = "retry"
	// InstructionLink offers a URL; the session does not move.
	InstructionLink InstructionKind = "link"
	// InstructionIdle shows the finished flow (no pending node).
	InstructionIdle InstructionKind = "idle"
	// InstructionNoop re-renders the current node after an ignored event.
	InstructionNoop InstructionKind = "noop"
	// InstructionError shows a generic retry-oriented failure message.
	InstructionError InstructionKind = "error"
)

// RenderOption is one button of an outbound instruction.
type RenderOption struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Selected bool   `json:"selected,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Progress summarises how much of the profile is filled in.
type Progress struct {
	RequiredDone  int `json:"required_done"`
	RequiredTotal int `json:"required_total"`
	OptionalDone  int `json:"optional_done"`
	OptionalTotal int `json:"optional_total"`
}

// Projection is the derived profile view attached to every instruction.
type Projection struct {
	Complete bool     `json:"complete"`
	Progress Progress `json:"progress"`
}

// Instruction is the platform-neutral result of a dispatch.
type Instruction struct {
	Kind   InstructionKind `json:"kind"`
	UserID string          `json:"user_id"`
	NodeID string          `json:"node_id,omitempty"`
	Mode   Mode            `json:"mode"`

	// NodeKind and Field describe the screen so hosts can build the right events.
	NodeKind NodeKind `json:"node_kind,omitempty"`
	Field    string   `json:"field,omitempty"`

	Text string `json:"text"`
	// Notices are messages emitted by soft steps passed through on the way.
	Notices []string `json:"notices,omitempty"`

	Options []RenderOption `json:"options,omitempty"`
	// Selected lists the items currently marked in a multi-select screen.
	Selected []string `json:"selected,omitempty"`
	// Category is the open category sub-screen, if any.
	Category string `json:"category,omitempty"`
	Link     string `json:"link,omitempty"`

	// CanGoBack tells whether a back button is meaningful.
	CanGoBack bool `json:"can_go_back,omitempty"`
	CanSkip   bool `json:"can_skip,omitempty"`

	Projection Projection `json:"projection"`
}
