package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ledger:ticket:"

// Store persists ticket state in redis with a bounded TTL. Each write
// refreshes the TTL; after eviction a read is indistinguishable from a
// ticket that never existed.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store. A non-positive ttl falls back to six hours.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Put overwrites the state for one ticket. Writes are per-key atomic;
// only the owning job writes a given ticket so last-writer-wins suffices.
func (s *Store) Put(ctx context.Context, id string, state State) error {
	state.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ticket store: marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("ticket store: set: %w", err)
	}
	return nil
}

// Get loads the state for one ticket.
func (s *Store) Get(ctx context.Context, id string) (State, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return State{}, ErrTicketNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("ticket store: get: %w", err)
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, fmt.Errorf("ticket store: unmarshal: %w", err)
	}
	return state, nil
}
