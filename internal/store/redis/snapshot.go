package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wielebenwir/commonsmap/internal/sources/adminajax"
)

const (
	// DefaultSnapshotTTL keeps the last payload around long enough to warm
	// start after a restart even when the backend is briefly down.
	DefaultSnapshotTTL = 48 * time.Hour
	// DefaultGeocodeTTL bounds how long address searches are served from
	// cache. Addresses move rarely; a day is plenty fresh.
	DefaultGeocodeTTL = 24 * time.Hour
)

// Store handles Redis persistence: the raw payload snapshot for warm
// starts and the geocode search cache.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// snapshotEnvelope wraps the payload with its fetch time.
type snapshotEnvelope struct {
	FetchedAt time.Time         `json:"fetchedAt"`
	Payload   adminajax.Payload `json:"payload"`
}

// SaveSnapshot stores the raw location payload.
func (s *Store) SaveSnapshot(ctx context.Context, payload adminajax.Payload) error {
	data, err := json.Marshal(snapshotEnvelope{
		FetchedAt: time.Now(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, KeySnapshot, data, DefaultSnapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves the last payload and its fetch time. A missing
// snapshot is not an error; ok is false.
func (s *Store) LoadSnapshot(ctx context.Context) (adminajax.Payload, time.Time, bool, error) {
	data, err := s.client.Get(ctx, KeySnapshot).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return envelope.Payload, envelope.FetchedAt, true, nil
}
