// Package sqlite stores the prompt and the exchange log in a SQLite workbook.
//
// A workbook holds named sheets. Each sheet has addressable cells (the prompt
// lives in one) and an append-only list of rows (the exchange log). A sheet
// that was never created is reported as [relay.ErrNotFound].
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/relay"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sheets (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS cells (
	sheet TEXT NOT NULL REFERENCES sheets(name),
	ref   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (sheet, ref)
);
CREATE TABLE IF NOT EXISTS rows (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sheet        TEXT NOT NULL REFERENCES sheets(name),
	timestamp    TEXT NOT NULL,
	user_message TEXT NOT NULL,
	bot_response TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS rows_sheet ON rows(sheet, id);
`

// DB is a workbook backed by a SQLite database file.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the workbook at path, ensuring that the parent
// directory exists and the schema is in place.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// SQLite serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate %s: %w", path, err)
	}
	return &DB{db: db, path: path}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// CreateSheet adds a sheet. Creating an existing sheet is a no-op.
func (d *DB) CreateSheet(ctx context.Context, name string) error {
	if _, err := d.db.ExecContext(ctx, `INSERT OR IGNORE INTO sheets (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("sqlite: create sheet %q: %w", name, err)
	}
	return nil
}

// Sheets lists sheet names in alphabetical order.
func (d *DB) Sheets(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM sheets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sheets: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: list sheets: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Cell returns the value at ref in sheet. A missing cell reads as empty.
func (d *DB) Cell(ctx context.Context, sheet, ref string) (string, error) {
	if err := d.requireSheet(ctx, sheet); err != nil {
		return "", err
	}
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM cells WHERE sheet = ? AND ref = ?`, sheet, ref).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", nil
	case err != nil:
		return "", fmt.Errorf("sqlite: read %s!%s: %w", sheet, ref, err)
	}
	return value, nil
}

// SetCell writes value at ref in sheet.
func (d *DB) SetCell(ctx context.Context, sheet, ref, value string) error {
	if err := d.requireSheet(ctx, sheet); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx, `INSERT INTO cells (sheet, ref, value) VALUES (?, ?, ?)
		ON CONFLICT (sheet, ref) DO UPDATE SET value = excluded.value`, sheet, ref, value)
	if err != nil {
		return fmt.Errorf("sqlite: write %s!%s: %w", sheet, ref, err)
	}
	return nil
}

// AppendRow appends rec to sheet.
func (d *DB) AppendRow(ctx context.Context, sheet string, rec relay.ExchangeRecord) error {
	if err := d.requireSheet(ctx, sheet); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx, `INSERT INTO rows (sheet, timestamp, user_message, bot_response) VALUES (?, ?, ?, ?)`,
		sheet,
		rec.Timestamp.Format(time.RFC3339Nano),
		rec.UserMessage,
		rec.BotResponse,
	)
	if err != nil {
		return fmt.Errorf("sqlite: append to %q: %w", sheet, err)
	}
	return nil
}

// Rows returns the last limit rows of sheet in append order. A limit of zero
// or less returns every row.
func (d *DB) Rows(ctx context.Context, sheet string, limit int) ([]relay.ExchangeRecord, error) {
	if err := d.requireSheet(ctx, sheet); err != nil {
		return nil, err
	}
	query := `SELECT timestamp, user_message, bot_response FROM rows WHERE sheet = ? ORDER BY id`
	args := []any{sheet}
	if limit > 0 {
		query = `SELECT timestamp, user_message, bot_response FROM (
			SELECT id, timestamp, user_message, bot_response FROM rows WHERE sheet = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: read %q: %w", sheet, err)
	}
	defer rows.Close()

	var records []relay.ExchangeRecord
	for rows.Next() {
		var rec relay.ExchangeRecord
		var ts string
		if err := rows.Scan(&ts, &rec.UserMessage, &rec.BotResponse); err != nil {
			return nil, fmt.Errorf("sqlite: read %q: %w", sheet, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (d *DB) requireSheet(ctx context.Context, sheet string) error {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sheets WHERE name = ?`, sheet).Scan(&n); err != nil {
		return fmt.Errorf("sqlite: lookup sheet %q: %w", sheet, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: sheet %q: %w", sheet, relay.ErrNotFound)
	}
	return nil
}
