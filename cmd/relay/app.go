package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/config"
	"github.com/fwojciec/relay/gemini"
)

// app holds everything a command needs after configuration is loaded.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	backend  *backend
	pipeline *relay.Pipeline
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := gemini.New(
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
	)
	return &app{
		cfg:     cfg,
		logger:  logger,
		backend: b,
		pipeline: &relay.Pipeline{
			Secrets:   b.secrets,
			Prompts:   &relay.PromptSource{Store: b.prompts, Logger: logger},
			Completer: client,
			Exchanges: &relay.ExchangeLogger{Store: b.logs, Logger: logger},
			Logger:    logger,
		},
	}, nil
}

func (a *app) Close() error {
	return a.backend.close()
}

// newLogger builds a text logger on w. debug forces the debug level.
func newLogger(w io.Writer, level string, debug bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
