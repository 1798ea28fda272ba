// Package tracking writes per-image status entries to the low-latency
// store that upload clients poll while their images are in flight.
package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/wildscope/wildscope-backend/pkg/enums"
	pkgerrors "github.com/wildscope/wildscope-backend/pkg/errors"
)

// kvStore is the slice of the redis client the tracker uses.
type kvStore interface {
	HSet(ctx context.Context, key string, fields map[string]any) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TrackingKey(prefix, storageKey string) string
}

// Store records pipeline progress keyed by storage key. Entries expire
// after the configured TTL; the durable store is the system of record.
type Store struct {
	kv     kvStore
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func New(kv kvStore, prefix string, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking store requires a redis client")
	}
	if prefix == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking key prefix is required")
	}
	return &Store{kv: kv, prefix: prefix, ttl: ttl, now: time.Now}, nil
}

// PutStatus upserts the tracking entry for a storage key. extra fields are
// merged into the hash so callers can attach result summaries or error
// messages alongside the status.
func (s *Store) PutStatus(ctx context.Context, storageKey string, status enums.TrackingStatus, extra map[string]any) error {
	if storageKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "storage key is required")
	}

	fields := map[string]any{
		"file_key":          storageKey,
		"processing_status": status.String(),
		"updated_at":        s.now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		fields[k] = v
	}

	key := s.kv.TrackingKey(s.prefix, storageKey)
	if err := s.kv.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("writing tracking entry %s: %w", key, err)
	}
	if s.ttl > 0 {
		if err := s.kv.Expire(ctx, key, s.ttl); err != nil {
			return fmt.Errorf("setting tracking TTL on %s: %w", key, err)
		}
	}
	return nil
}

// GetStatus returns the raw tracking entry for a storage key. An empty map
// means no entry exists (or it already expired).
func (s *Store) GetStatus(ctx context.Context, storageKey string) (map[string]string, error) {
	if storageKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage key is required")
	}
	return s.kv.HGetAll(ctx, s.kv.TrackingKey(s.prefix, storageKey))
}
