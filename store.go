package relay

import (
	"context"
	"time"
)

// SecretStore provides named secret properties.
// Property returns an empty string and a nil error for unset names.
type SecretStore interface {
	Property(ctx context.Context, name string) (string, error)
}

// PromptStore reads the operator-configured system prompt.
// Prompt returns an error wrapping ErrNotFound when the prompt section does
// not exist, and an empty string when it exists but holds no value.
type PromptStore interface {
	Prompt(ctx context.Context) (string, error)
}

// LogStore appends exchange records to a durable log.
// Append returns an error wrapping ErrNotFound when the log section does not
// exist.
type LogStore interface {
	Append(ctx context.Context, rec ExchangeRecord) error
}

// Completer sends a single prompt-augmented request to a completion endpoint.
type Completer interface {
	Complete(ctx context.Context, apiKey string, req CompletionRequest) (string, error)
}

// Processor turns one user message into one reply. It never fails.
type Processor interface {
	Process(ctx context.Context, message string) string
}

// ExchangeRecord is one logged turn. Fields are in log column order.
type ExchangeRecord struct {
	Timestamp   time.Time
	UserMessage string
	BotResponse string
}

// CompletionRequest pairs the system prompt with the user's message.
type CompletionRequest struct {
	SystemPrompt string
	UserMessage  string
}

// Text returns the single user-role text sent to the model: the system
// prompt, a blank line, and the message labelled with the user role.
func (r CompletionRequest) Text() string {
	return r.SystemPrompt + "\n\n" + "ユーザー: " + r.UserMessage
}
