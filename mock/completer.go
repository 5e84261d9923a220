package mock

import (
	"context"

	"github.com/fwojciec/relay"
)

// Interface compliance checks.
var (
	_ relay.Completer = (*Completer)(nil)
	_ relay.Processor = (*Processor)(nil)
)

// Completer is a test double for relay.Completer.
// Set CompleteFn before calling Complete.
type Completer struct {
	CompleteFn func(ctx context.Context, apiKey string, req relay.CompletionRequest) (string, error)
}

// Complete delegates to CompleteFn.
func (c *Completer) Complete(ctx context.Context, apiKey string, req relay.CompletionRequest) (string, error) {
	return c.CompleteFn(ctx, apiKey, req)
}

// Processor is a test double for relay.Processor.
// Set ProcessFn before calling Process.
type Processor struct {
	ProcessFn func(ctx context.Context, message string) string
}

// Process delegates to ProcessFn.
func (p *Processor) Process(ctx context.Context, message string) string {
	return p.ProcessFn(ctx, message)
}
