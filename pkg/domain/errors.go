package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a user id cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownNode is returned when a node id is not part of the graph.
var ErrUnknownNode = errors.New("unknown node")

// ErrUnknownOption is returned when an option id does not belong to the current node.
var ErrUnknownOption = errors.New("unknown option")

// ErrUnknownItem is returned when a category or item is not in the selection catalogue.
var ErrUnknownItem = errors.New("unknown catalogue item")

// ErrUnknownField is returned when a field has no owning node.
var ErrUnknownField = errors.New("unknown field")

// ErrNotIdle is returned when an edit is requested while the entry flow is still running.
var ErrNotIdle = errors.New("session is not idle")

// ErrUnexpectedEvent is returned when an event does not apply to the current node kind.
var ErrUnexpectedEvent = errors.New("event does not apply to current node")

// ValidationError describes why a free-text answer was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}
