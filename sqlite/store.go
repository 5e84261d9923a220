package sqlite

import (
	"context"

	"github.com/fwojciec/relay"
)

// Interface compliance checks.
var (
	_ relay.PromptStore = (*PromptSheet)(nil)
	_ relay.LogStore    = (*LogSheet)(nil)
)

// PromptSheet reads the system prompt from one cell of a sheet.
type PromptSheet struct {
	DB    *DB
	Sheet string
	Cell  string
}

// Prompt implements [relay.PromptStore].
func (p *PromptSheet) Prompt(ctx context.Context) (string, error) {
	return p.DB.Cell(ctx, p.Sheet, p.Cell)
}

// LogSheet appends exchange records as rows of a sheet.
type LogSheet struct {
	DB    *DB
	Sheet string
}

// Append implements [relay.LogStore].
func (l *LogSheet) Append(ctx context.Context, rec relay.ExchangeRecord) error {
	return l.DB.AppendRow(ctx, l.Sheet, rec)
}
