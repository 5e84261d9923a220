package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ExchangeLogger records processed turns. Recording is best-effort: failures
// are logged and never reach the caller.
type ExchangeLogger struct {
	Store  LogStore
	Logger *slog.Logger

	// Now returns the record timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Record appends one record. A missing log section is not an error.
func (l *ExchangeLogger) Record(ctx context.Context, userMessage, botResponse string) {
	if l == nil || l.Store == nil {
		return
	}
	log := orDiscard(l.Logger)
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "record exchange", "panic", r)
		}
	}()

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	err := l.Store.Append(ctx, ExchangeRecord{
		Timestamp:   now(),
		UserMessage: userMessage,
		BotResponse: botResponse,
	})
	switch {
	case errors.Is(err, ErrNotFound):
		log.DebugContext(ctx, "log section not found, exchange not recorded")
	case err != nil:
		log.ErrorContext(ctx, "record exchange", "error", err)
	}
}
