// Package file reads the system prompt from a plain text file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/relay"
)

// Interface compliance check.
var _ relay.PromptStore = (*PromptFile)(nil)

// PromptFile is a [relay.PromptStore] reading one file on every call.
type PromptFile struct {
	Path string
}

// Prompt implements [relay.PromptStore]. A missing file is ErrNotFound;
// a file holding only whitespace reads as empty.
func (p *PromptFile) Prompt(context.Context) (string, error) {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("file: %s: %w", p.Path, relay.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", nil
	}
	return string(data), nil
}

// SetPrompt writes prompt to the file, replacing its contents.
func (p *PromptFile) SetPrompt(_ context.Context, prompt string) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o700); err != nil {
		return fmt.Errorf("file: %w", err)
	}
	if err := os.WriteFile(p.Path, []byte(prompt), 0o600); err != nil {
		return fmt.Errorf("file: %w", err)
	}
	return nil
}
