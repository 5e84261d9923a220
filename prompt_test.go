package relay_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/mock"
	"github.com/stretchr/testify/assert"
)

func TestPromptSource_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("returns stored prompt", func(t *testing.T) {
		t.Parallel()
		s := relay.PromptSource{Store: &mock.PromptStore{
			PromptFn: func(ctx context.Context) (string, error) { return "Be terse.", nil },
		}}
		assert.Equal(t, "Be terse.", s.Resolve(context.Background()))
	})

	t.Run("empty value falls back to default", func(t *testing.T) {
		t.Parallel()
		s := relay.PromptSource{Store: &mock.PromptStore{
			PromptFn: func(ctx context.Context) (string, error) { return "", nil },
		}}
		assert.Equal(t, relay.DefaultSystemPrompt, s.Resolve(context.Background()))
	})

	t.Run("missing section falls back without error log", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		s := relay.PromptSource{
			Store: &mock.PromptStore{
				PromptFn: func(ctx context.Context) (string, error) {
					return "", fmt.Errorf("sheet %q: %w", relay.DefaultPromptSheet, relay.ErrNotFound)
				},
			},
			Logger: slog.New(slog.NewTextHandler(&buf, nil)),
		}
		assert.Equal(t, relay.DefaultSystemPrompt, s.Resolve(context.Background()))
		assert.NotContains(t, buf.String(), "level=ERROR")
	})

	t.Run("store failure is logged and falls back", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		s := relay.PromptSource{
			Store: &mock.PromptStore{
				PromptFn: func(ctx context.Context) (string, error) { return "", errors.New("disk on fire") },
			},
			Logger: slog.New(slog.NewTextHandler(&buf, nil)),
		}
		assert.Equal(t, relay.DefaultSystemPrompt, s.Resolve(context.Background()))
		assert.Contains(t, buf.String(), "level=ERROR")
		assert.Contains(t, buf.String(), "disk on fire")
	})

	t.Run("nil store uses default", func(t *testing.T) {
		t.Parallel()
		var s relay.PromptSource
		assert.Equal(t, relay.DefaultSystemPrompt, s.Resolve(context.Background()))
	})

	t.Run("reads the store on every call", func(t *testing.T) {
		t.Parallel()
		prompts := []string{"first", "second"}
		calls := 0
		s := relay.PromptSource{Store: &mock.PromptStore{
			PromptFn: func(ctx context.Context) (string, error) {
				p := prompts[calls]
				calls++
				return p, nil
			},
		}}
		assert.Equal(t, "first", s.Resolve(context.Background()))
		assert.Equal(t, "second", s.Resolve(context.Background()))
		assert.Equal(t, 2, calls)
	})
}
