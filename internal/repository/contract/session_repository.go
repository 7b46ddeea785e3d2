package contract

import (
	"context"

	"campus-qa-be/pkg/store"
)

// SessionRepository persists whole Session records keyed by session id.
type SessionRepository interface {
	// FindByID returns (nil, nil) when the id is unknown.
	FindByID(ctx context.Context, sessionID string) (*store.Session, error)
	// Upsert writes the full session record, inserting or replacing.
	Upsert(ctx context.Context, session *store.Session) error
}
