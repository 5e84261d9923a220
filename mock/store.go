// Package mock provides test doubles for relay interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/relay"
)

// Interface compliance checks.
var (
	_ relay.SecretStore = (*SecretStore)(nil)
	_ relay.PromptStore = (*PromptStore)(nil)
	_ relay.LogStore    = (*LogStore)(nil)
)

// SecretStore is a test double for relay.SecretStore.
// Set PropertyFn before calling Property.
type SecretStore struct {
	PropertyFn func(ctx context.Context, name string) (string, error)
}

// Property delegates to PropertyFn.
func (s *SecretStore) Property(ctx context.Context, name string) (string, error) {
	return s.PropertyFn(ctx, name)
}

// PromptStore is a test double for relay.PromptStore.
// Set PromptFn before calling Prompt.
type PromptStore struct {
	PromptFn func(ctx context.Context) (string, error)
}

// Prompt delegates to PromptFn.
func (s *PromptStore) Prompt(ctx context.Context) (string, error) {
	return s.PromptFn(ctx)
}

// LogStore is a test double for relay.LogStore.
// Set AppendFn before calling Append.
type LogStore struct {
	AppendFn func(ctx context.Context, rec relay.ExchangeRecord) error
}

// Append delegates to AppendFn.
func (s *LogStore) Append(ctx context.Context, rec relay.ExchangeRecord) error {
	return s.AppendFn(ctx, rec)
}
