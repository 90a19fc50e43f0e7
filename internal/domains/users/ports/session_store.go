package ports

import (
	"context"
	"time"
)

// SessionStore tracks issued tokens so logout can revoke them before
// their signature expiry.
type SessionStore interface {
	Save(ctx context.Context, tokenID, username string, expiresAt time.Time) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	Delete(ctx context.Context, tokenID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// NoopSessionStore is a safe default when callers do not need revocation.
var NoopSessionStore SessionStore = noopSessionStore{}

type noopSessionStore struct{}

func (noopSessionStore) Save(context.Context, string, string, time.Time) error { return nil }
func (noopSessionStore) Exists(context.Context, string) (bool, error)          { return true, nil }
func (noopSessionStore) Delete(context.Context, string) error                  { return nil }
func (noopSessionStore) PurgeExpired(context.Context, time.Time) (int, error)  { return 0, nil }
