package ports

import (
	"context"

	"github.com/aretw0/rapport/pkg/domain"
)

// SessionStore defines the durable backing of per-user sessions.
// Implementations must write each user's document independently so that a failed or
// interrupted write never corrupts the documents of other users.
type SessionStore interface {
	// Save persists the session for a given user id.
	Save(ctx context.Context, userID string, session *domain.Session) error

	// Load retrieves the session for a given user id.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, userID string) (*domain.Session, error)

	// Delete removes the session for a given user id.
	Delete(ctx context.Context, userID string) error

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
