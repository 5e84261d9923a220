// Package json persists the exchange log as JSON Lines.
//
// Each appended record is one line carrying a generated id. Load reads the
// log back; Export writes a snapshot as an indented JSON array.
package json

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/relay"
	"github.com/google/uuid"
)

// entry is the v1 wire format for one logged exchange.
type entry struct {
	Version     int       `json:"version"`
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
}

// Record is a logged exchange with its id.
type Record struct {
	ID string
	relay.ExchangeRecord
}

func toEntry(rec relay.ExchangeRecord) entry {
	return entry{
		Version:     1,
		ID:          uuid.NewString(),
		Timestamp:   rec.Timestamp,
		UserMessage: rec.UserMessage,
		BotResponse: rec.BotResponse,
	}
}

func fromEntry(e entry) Record {
	return Record{
		ID: e.ID,
		ExchangeRecord: relay.ExchangeRecord{
			Timestamp:   e.Timestamp,
			UserMessage: e.UserMessage,
			BotResponse: e.BotResponse,
		},
	}
}

// MarshalRecord serializes rec as a single JSON line without the trailing
// newline, assigning a new id.
func MarshalRecord(rec relay.ExchangeRecord) ([]byte, error) {
	return json.Marshal(toEntry(rec))
}

// UnmarshalRecord deserializes one JSON line.
func UnmarshalRecord(data []byte) (Record, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Record{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	if e.Version != 1 {
		return Record{}, fmt.Errorf("unsupported entry version: %d", e.Version)
	}
	return fromEntry(e), nil
}

// Load reads every record from a JSON Lines file. A missing file yields an
// error wrapping relay.ErrNotFound.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", path, relay.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		rec, err := UnmarshalRecord(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// Export writes records to path as an indented JSON array, creating parent
// directories as needed. The file is replaced atomically.
func Export(path string, records []Record) error {
	entries := make([]entry, len(records))
	for i, r := range records {
		entries[i] = entry{
			Version:     1,
			ID:          r.ID,
			Timestamp:   r.Timestamp,
			UserMessage: r.UserMessage,
			BotResponse: r.BotResponse,
		}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
