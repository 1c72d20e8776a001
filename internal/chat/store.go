package chat

import "context"

// SessionStore persists conversation sessions keyed by phone number.
// Implementations expire idle sessions after a TTL.
type SessionStore interface {
	Get(ctx context.Context, phone string) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, phone string) error
}
