package relay

import (
	"context"
	"errors"
	"log/slog"
)

// PromptSource resolves the system prompt for each request.
// The store is read on every call; nothing is cached.
type PromptSource struct {
	Store  PromptStore
	Logger *slog.Logger
}

// Resolve returns the configured prompt, or DefaultSystemPrompt when the
// store is missing, empty, or fails. It never returns an empty string.
func (s *PromptSource) Resolve(ctx context.Context) string {
	if s == nil || s.Store == nil {
		return DefaultSystemPrompt
	}
	log := orDiscard(s.Logger)

	prompt, err := s.Store.Prompt(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		log.DebugContext(ctx, "prompt not configured, using default")
	case err != nil:
		log.ErrorContext(ctx, "resolve prompt", "error", err)
	case prompt != "":
		return prompt
	}
	return DefaultSystemPrompt
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
