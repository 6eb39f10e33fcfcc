package domain

import (
	"context"
	"fmt"
)

// EventKind tags an inbound event.
type EventKind string

const (
	EventFreeText       EventKind = "free_text"
	EventOptionSelected EventKind = "option_selected"
	EventMultiToggle    EventKind = "multi_toggle"
	EventCategoryOpened EventKind = "category_opened"
	EventDone           EventKind = "done"
	EventBack           EventKind = "back"
	EventEditField      EventKind = "edit_field"
	EventSkip           EventKind = "skip"
)

// Event is one inbound user action delivered by the host.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Option   string    `json:"option,omitempty"`
	Category string    `json:"category,omitempty"`
	Item     string    `json:"item,omitempty"`
	Field    string    `json:"field,omitempty"`
}

// FreeText is a typed message.
func FreeText(text string) Event { return Event{Kind: EventFreeText, Text: text} }

// OptionSelected is a choice button press.
func OptionSelected(optionID string) Event { return Event{Kind: EventOptionSelected, Option: optionID} }

// MultiToggle flips one item inside a category screen.
func MultiToggle(category, item string) Event {
	return Event{Kind: EventMultiToggle, Category: category, Item: item}
}

// CategoryOpened enters a category screen of the current multi-select node.
func CategoryOpened(category string) Event {
	return Event{Kind: EventCategoryOpened, Category: category}
}

// DoneRequested finishes a multi-select field.
func DoneRequested(field string) Event { return Event{Kind: EventDone, Field: field} }

// BackRequested asks for the previous screen.
func BackRequested() Event { return Event{Kind: EventBack} }

// EditFieldRequested reopens one committed field.
func EditFieldRequested(field string) Event { return Event{Kind: EventEditField, Field: field} }

// SkipRequested skips a skippable node.
func SkipRequested() Event { return Event{Kind: EventSkip} }

// Validate checks that the fields required by Kind are present.
func (e Event) Validate() error {
	switch e.Kind {
	case EventFreeText, EventBack, EventSkip:
		return nil
	case EventOptionSelected:
		if e.Option == "" {
			return fmt.Errorf("%s: option is required", e.Kind)
		}
	case EventMultiToggle:
		if e.Category == "" || e.Item == "" {
			return fmt.Errorf("%s: category and item are required", e.Kind)
		}
	case EventCategoryOpened:
		if e.Category == "" {
			return fmt.Errorf("%s: category is required", e.Kind)
		}
	case EventDone, EventEditField:
		if e.Field == "" {
			return fmt.Errorf("%s: field is required", e.Kind)
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

// Describe returns a short activity-log detail for the event.
func (e Event) Describe() string {
	switch e.Kind {
	case EventOptionSelected:
		return e.Option
	case EventMultiToggle:
		return e.Category + "/" + e.Item
	case EventCategoryOpened:
		return e.Category
	case EventDone, EventEditField:
		return e.Field
	}
	return ""
}

// NodeEvent is emitted when a session enters or leaves a node.
type NodeEvent struct {
	UserID string   `json:"user_id"`
	NodeID string   `json:"node_id"`
	Kind   NodeKind `json:"kind"`
}

// CommitEvent is emitted when a profile field is committed.
type CommitEvent struct {
	UserID   string `json:"user_id"`
	NodeID   string `json:"node_id"`
	Field    string `json:"field"`
	Complete bool   `json:"complete"`
}

// DispatchEvent is emitted once per handled inbound event.
type DispatchEvent struct {
	UserID  string          `json:"user_id"`
	Event   EventKind       `json:"event"`
	Outcome InstructionKind `json:"outcome"`
}

// LifecycleHooks defines callbacks for interpreter observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnCommit    func(context.Context, *CommitEvent)
	OnDispatch  func(context.Context, *DispatchEvent)
}
