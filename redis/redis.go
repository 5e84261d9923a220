// Package redis implements relay's prompt, secret and log stores on Redis.
//
// The prompt is a string key, secrets are fields of a hash, and the exchange
// log is a list of JSON records appended with RPUSH.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/relay"
	"github.com/redis/go-redis/v9"
)

// Interface compliance checks.
var (
	_ relay.PromptStore = (*Store)(nil)
	_ relay.SecretStore = (*Store)(nil)
	_ relay.LogStore    = (*Store)(nil)
)

// Keys names the Redis keys a Store reads and writes.
type Keys struct {
	Prompt  string
	Secrets string
	Log     string
}

// DefaultKeys returns the keys used when none are configured.
func DefaultKeys() Keys {
	return Keys{
		Prompt:  "relay:prompt",
		Secrets: "relay:secrets",
		Log:     "relay:log",
	}
}

// Store implements [relay.PromptStore], [relay.SecretStore] and
// [relay.LogStore] on a Redis client.
type Store struct {
	client *redis.Client
	keys   Keys
}

// NewStore creates a Store. Empty key names fall back to DefaultKeys.
func NewStore(client *redis.Client, keys Keys) *Store {
	def := DefaultKeys()
	if keys.Prompt == "" {
		keys.Prompt = def.Prompt
	}
	if keys.Secrets == "" {
		keys.Secrets = def.Secrets
	}
	if keys.Log == "" {
		keys.Log = def.Log
	}
	return &Store{client: client, keys: keys}
}

// record is the wire format of one log entry.
type record struct {
	Timestamp   time.Time `json:"timestamp"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
}

// Prompt implements [relay.PromptStore]. A missing key is ErrNotFound.
func (s *Store) Prompt(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.keys.Prompt).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis: key %q: %w", s.keys.Prompt, relay.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %q: %w", s.keys.Prompt, err)
	}
	return val, nil
}

// SetPrompt replaces the stored prompt.
func (s *Store) SetPrompt(ctx context.Context, prompt string) error {
	if err := s.client.Set(ctx, s.keys.Prompt, prompt, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", s.keys.Prompt, err)
	}
	return nil
}

// Property implements [relay.SecretStore]. Unset fields read as empty.
func (s *Store) Property(ctx context.Context, name string) (string, error) {
	val, err := s.client.HGet(ctx, s.keys.Secrets, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis: hget %q %q: %w", s.keys.Secrets, name, err)
	}
	return val, nil
}

// Append implements [relay.LogStore].
func (s *Store) Append(ctx context.Context, rec relay.ExchangeRecord) error {
	data, err := json.Marshal(record{
		Timestamp:   rec.Timestamp,
		UserMessage: rec.UserMessage,
		BotResponse: rec.BotResponse,
	})
	if err != nil {
		return fmt.Errorf("redis: marshal record: %w", err)
	}
	if err := s.client.RPush(ctx, s.keys.Log, data).Err(); err != nil {
		return fmt.Errorf("redis: rpush %q: %w", s.keys.Log, err)
	}
	return nil
}

// Records returns the last limit log entries in append order. A limit of
// zero or less returns every entry.
func (s *Store) Records(ctx context.Context, limit int) ([]relay.ExchangeRecord, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	vals, err := s.client.LRange(ctx, s.keys.Log, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: lrange %q: %w", s.keys.Log, err)
	}
	records := make([]relay.ExchangeRecord, 0, len(vals))
	for i, v := range vals {
		var r record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("redis: record %d: %w", i, err)
		}
		records = append(records, relay.ExchangeRecord{
			Timestamp:   r.Timestamp,
			UserMessage: r.UserMessage,
			BotResponse: r.BotResponse,
		})
	}
	return records, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
