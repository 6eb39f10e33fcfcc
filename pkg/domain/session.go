package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultActivityLimit caps the per-session activity log.
const DefaultActivityLimit = 100

// Mode tells whether a session walks the whole entry flow or patches a single field.
type Mode string

const (
	ModeFill Mode = "fill"
	ModeEdit Mode = "edit"
)

// ActivityEntry records one handled event.
type ActivityEntry struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Event  EventKind `json:"event"`
	NodeID string    `json:"node_id,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// Session is the durable per-user record of dialogue position and collected data.
type Session struct {
	UserID string `json:"user_id"`

	// CurrentNodeID is the node awaiting input. Empty means idle (flow complete).
	CurrentNodeID string `json:"current_node_id"`

	Mode Mode `json:"mode"`

	Profile Profile `json:"profile"`

	// Scratch holds uncommitted multi-select state, keyed by field.
	Scratch map[string]Selection `json:"scratch,omitempty"`

	// Category is the category sub-screen open inside the current multi-select node.
	Category string `json:"category,omitempty"`

	// History is the back-navigation stack; the last element is the top.
	History []string `json:"history,omitempty"`

	Activity []ActivityEntry `json:"activity,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session positioned at the entry node in fill mode.
func NewSession(userID, entryNodeID string) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:        userID,
		CurrentNodeID: entryNodeID,
		Mode:          ModeFill,
		Profile:       make(Profile),
		Scratch:       make(map[string]Selection),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsIdle reports whether the session has no pending node.
func (s *Session) IsIdle() bool {
	return s.CurrentNodeID == ""
}

// Push records nodeID on the navigation stack.
func (s *Session) Push(nodeID string) {
	if nodeID == "" {
		return
	}
	s.History = append(s.History, nodeID)
}

// Pop removes and returns the top of the navigation stack.
func (s *Session) Pop() (string, bool) {
	if len(s.History) == 0 {
		return "", false
	}
	top := s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]
	return top, true
}

// Commit stores value under field and drops any scratch state for it.
func (s *Session) Commit(field string, value Value) {
	if s.Profile == nil {
		s.Profile = make(Profile)
	}
	s.Profile[field] = value.Clone()
	delete(s.Scratch, field)
}

// ScratchFor returns the in-progress selection of field.
func (s *Session) ScratchFor(field string) Selection {
	return s.Scratch[field].Clone()
}

// SetScratch replaces the in-progress selection of field.
func (s *Session) SetScratch(field string, sel Selection) {
	if s.Scratch == nil {
		s.Scratch = make(map[string]Selection)
	}
	s.Scratch[field] = sel.Clone()
}

// Record appends an activity entry, evicting the oldest ones beyond limit.
func (s *Session) Record(kind EventKind, nodeID, detail string, limit int) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	s.Activity = append(s.Activity, ActivityEntry{
		ID:     uuid.NewString(),
		At:     time.Now().UTC(),
		Event:  kind,
		NodeID: nodeID,
		Detail: detail,
	})
	if over := len(s.Activity) - limit; over > 0 {
		s.Activity = append([]ActivityEntry(nil), s.Activity[over:]...)
	}
}

// Clone returns a deep copy safe for independent mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Profile = s.Profile.Clone()
	next.Scratch = make(map[string]Selection, len(s.Scratch))
	for k, v := range s.Scratch {
		next.Scratch[k] = v.Clone()
	}
	next.History = append([]string(nil), s.History...)
	next.Activity = append([]ActivityEntry(nil), s.Activity...)
	return &next
}
