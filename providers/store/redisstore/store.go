package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces chain result keys.
const DefaultPrefix = "aigoflow:chain:"

// Store implements chain.ResultStore on Redis. Results are stored as JSON,
// so they load back as generic values (maps, slices, strings, float64).
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiration of stored results; zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Store on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client returns the underlying client.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(chainID, flowID string) string {
	return s.prefix + chainID + ":" + flowID
}

func (s *Store) indexKey(chainID string) string {
	return s.prefix + chainID + ":flows"
}

// Save stores result under chainID/flowID and records flowID in the chain
// index.
func (s *Store) Save(ctx context.Context, chainID, flowID string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(chainID, flowID), data, s.ttl)
	pipe.RPush(ctx, s.indexKey(chainID), flowID)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.indexKey(chainID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load returns the result stored under chainID/flowID.
func (s *Store) Load(ctx context.Context, chainID, flowID string) (any, bool, error) {
	data, err := s.client.Get(ctx, s.key(chainID, flowID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load from redis: %w", err)
	}

	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return result, true, nil
}

// Flows lists the flow ids saved for chainID, in save order.
func (s *Store) Flows(ctx context.Context, chainID string) ([]string, error) {
	ids, err := s.client.LRange(ctx, s.indexKey(chainID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return ids, nil
}

// Delete removes every result of chainID.
func (s *Store) Delete(ctx context.Context, chainID string) error {
	ids, err := s.Flows(ctx, chainID)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(chainID, id))
	}
	keys = append(keys, s.indexKey(chainID))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete chain: %w", err)
	}
	return nil
}
