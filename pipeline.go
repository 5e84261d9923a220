package relay

import (
	"context"
	"fmt"
	"log/slog"
)

// Interface compliance check.
var _ Processor = (*Pipeline)(nil)

// Pipeline orchestrates one turn: credential, prompt, completion, log.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	Secrets   SecretStore
	Prompts   *PromptSource
	Completer Completer
	Exchanges *ExchangeLogger
	Logger    *slog.Logger
}

// Process returns the model's reply to message, or FallbackReply when any
// step before logging fails. It never panics and never returns an empty
// string; diagnostics go to the logger only.
func (p *Pipeline) Process(ctx context.Context, message string) (reply string) {
	log := orDiscard(p.Logger)
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "process message", "error", fmt.Errorf("panic: %v", r))
			reply = FallbackReply
		}
	}()

	reply, err := p.process(ctx, message)
	if err != nil {
		log.ErrorContext(ctx, "process message", "error", err)
		return FallbackReply
	}
	return reply
}

func (p *Pipeline) process(ctx context.Context, message string) (string, error) {
	apiKey, err := p.apiKey(ctx)
	if err != nil {
		return "", err
	}

	req := CompletionRequest{
		SystemPrompt: p.Prompts.Resolve(ctx),
		UserMessage:  message,
	}
	reply, err := p.Completer.Complete(ctx, apiKey, req)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	p.Exchanges.Record(ctx, message, reply)
	if reply == "" {
		// Replies are never empty, even for a well-formed empty part.
		return FallbackReply, nil
	}
	return reply, nil
}

func (p *Pipeline) apiKey(ctx context.Context) (string, error) {
	if p.Secrets == nil {
		return "", ErrMissingCredential
	}
	key, err := p.Secrets.Property(ctx, APIKeyProperty)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", APIKeyProperty, err)
	}
	if key == "" {
		return "", fmt.Errorf("%s is not set: %w", APIKeyProperty, ErrMissingCredential)
	}
	return key, nil
}
