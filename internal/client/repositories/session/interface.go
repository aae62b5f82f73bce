package session

import "context"

// Repository is a small key-value store for the session singleton, the
// offline credential cache, and sync bookkeeping (e.g. last snapshot
// refresh stamps).
type Repository interface {
	// Get returns the stored value, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear wipes the whole table (logout).
	Clear(ctx context.Context) error
}

// Well-known keys.
const (
	KeyUsername        = "username"
	KeySalt            = "salt"
	KeyVerifier        = "verifier"
	KeyRole            = "role"
	KeyToken           = "token"
	KeyIssuedAt        = "issued_at"
	KeySchoolsSyncedAt = "schools_synced_at"
)
