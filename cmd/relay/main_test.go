package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGemini records generateContent request texts and answers with reply.
type fakeGemini struct {
	*httptest.Server

	mu    sync.Mutex
	texts []string
	keys  []string
}

func newFakeGemini(t *testing.T, reply string) *fakeGemini {
	t.Helper()
	f := &fakeGemini{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		f.mu.Lock()
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			f.texts = append(f.texts, body.Contents[0].Parts[0].Text)
		}
		f.keys = append(f.keys, r.URL.Query().Get("key"))
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		resp, _ := json.Marshal(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": reply}}},
			}},
		})
		_, _ = w.Write(resp)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGemini) sent() (texts, keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...), append([]string(nil), f.keys...)
}

func (f *fakeGemini) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func writeTestConfig(t *testing.T, baseURL string) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "relay.db")
	configPath = filepath.Join(dir, "config.yaml")
	cfg := "gemini:\n  base_url: " + baseURL + "\n" +
		"store:\n  backend: sqlite\n" +
		"sqlite:\n  path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return configPath, dbPath
}

func runCmd(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out, &errOut, false)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestAsk_EndToEnd(t *testing.T) {
	t.Setenv(relay.APIKeyProperty, "test-key")
	gem := newFakeGemini(t, "Hi.")
	cfgPath, dbPath := writeTestConfig(t, gem.URL)

	_, _, err := runCmd(t, "", "--config", cfgPath, "init")
	require.NoError(t, err)
	_, _, err = runCmd(t, "", "--config", cfgPath, "prompt", "set", "Be terse.")
	require.NoError(t, err)

	out, _, err := runCmd(t, "", "--config", cfgPath, "ask", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi.\n", out)

	texts, keys := gem.sent()
	assert.Equal(t, []string{"Be terse.\n\nユーザー: Hello"}, texts)
	assert.Equal(t, []string{"test-key"}, keys)

	db, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Rows(context.Background(), relay.DefaultLogSheet, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hello", rows[0].UserMessage)
	assert.Equal(t, "Hi.", rows[0].BotResponse)
	assert.False(t, rows[0].Timestamp.IsZero())

	out, _, err = runCmd(t, "", "--config", cfgPath, "log", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "\"Hello\"\t\"Hi.\"")
}

func TestAsk_MissingCredential(t *testing.T) {
	t.Setenv(relay.APIKeyProperty, "")
	gem := newFakeGemini(t, "never")
	cfgPath, dbPath := writeTestConfig(t, gem.URL)

	_, _, err := runCmd(t, "", "--config", cfgPath, "init")
	require.NoError(t, err)

	out, _, err := runCmd(t, "", "--config", cfgPath, "ask", "anything")
	require.NoError(t, err)
	assert.Equal(t, relay.FallbackReply+"\n", out)
	assert.Zero(t, gem.requests())

	db, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Rows(context.Background(), relay.DefaultLogSheet, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAsk_NoSheetsUsesDefaultPromptAndSkipsLog(t *testing.T) {
	t.Setenv(relay.APIKeyProperty, "test-key")
	gem := newFakeGemini(t, "やあ")
	cfgPath, _ := writeTestConfig(t, gem.URL)

	out, _, err := runCmd(t, "こんにちは\n", "--config", cfgPath, "ask")
	require.NoError(t, err)
	assert.Equal(t, "やあ\n", out)
	texts, _ := gem.sent()
	assert.Equal(t, []string{relay.DefaultSystemPrompt + "\n\nユーザー: こんにちは"}, texts)
}

func TestChat_EachLineIsOneTurn(t *testing.T) {
	t.Setenv(relay.APIKeyProperty, "test-key")
	gem := newFakeGemini(t, "ok")
	cfgPath, _ := writeTestConfig(t, gem.URL)

	out, _, err := runCmd(t, "one\ntwo\n/exit\nthree\n", "--config", cfgPath, "chat", "--render=false")
	require.NoError(t, err)
	assert.Equal(t, 2, gem.requests())
	assert.Equal(t, 2, strings.Count(out, "ok\n"))
}

func TestPromptGet_DefaultWhenUnset(t *testing.T) {
	t.Setenv(relay.APIKeyProperty, "")
	cfgPath, _ := writeTestConfig(t, "http://127.0.0.1:0")

	out, _, err := runCmd(t, "", "--config", cfgPath, "prompt", "get")
	require.NoError(t, err)
	assert.Equal(t, relay.DefaultSystemPrompt+"\n", out)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: sheets\n"), 0o600))
	_, _, err := runCmd(t, "", "--config", path, "ask", "x")
	assert.ErrorIs(t, err, relay.ErrInvalidConfig)
}

func TestIsDebug(t *testing.T) {
	t.Parallel()
	assert.True(t, isDebug("1"))
	assert.True(t, isDebug("TRUE"))
	assert.False(t, isDebug(""))
	assert.False(t, isDebug("0"))
}

func TestFileBackend_FreshInstall(t *testing.T) {
	t.Setenv(relay.APIKeyProperty, "test-key")
	gem := newFakeGemini(t, "Hi.")
	dir := filepath.Join(t.TempDir(), "sub")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "gemini:\n  base_url: " + gem.URL + "\n" +
		"store:\n  backend: file\n" +
		"file:\n  prompt_path: " + filepath.Join(dir, "prompt.md") + "\n" +
		"  log_path: " + filepath.Join(dir, "log.jsonl") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, _, err := runCmd(t, "", "--config", cfgPath, "log", "list")
	require.NoError(t, err)
	assert.Empty(t, out)

	exportPath := filepath.Join(t.TempDir(), "export.json")
	_, _, err = runCmd(t, "", "--config", cfgPath, "log", "export", exportPath)
	require.NoError(t, err)
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	_, _, err = runCmd(t, "", "--config", cfgPath, "prompt", "set", "Be terse.")
	require.NoError(t, err)

	out, _, err = runCmd(t, "", "--config", cfgPath, "ask", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi.\n", out)
	texts, _ := gem.sent()
	assert.Equal(t, []string{"Be terse.\n\nユーザー: Hello"}, texts)

	out, _, err = runCmd(t, "", "--config", cfgPath, "log", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "\"Hello\"\t\"Hi.\"")
}

func TestInit_ListsSections(t *testing.T) {
	t.Setenv(relay.APIKeyProperty, "")
	cfgPath, dbPath := writeTestConfig(t, "http://127.0.0.1:0")

	out, _, err := runCmd(t, "", "--config", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized sqlite store at "+dbPath)
	assert.Contains(t, out, "  "+relay.DefaultPromptSheet+"\n")
	assert.Contains(t, out, "  "+relay.DefaultLogSheet+"\n")
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	t.Setenv(relay.APIKeyProperty, "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "store:\n  backend: sqlite\n" +
		"sqlite:\n  path: " + filepath.Join(dir, "relay.db") + "\n" +
		"redis:\n  password: hunter2\n" +
		"properties:\n  GEMINI_API_KEY: secret-key\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, _, err := runCmd(t, "", "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: sqlite")
	assert.Contains(t, out, "GEMINI_API_KEY:")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "secret-key")
}
