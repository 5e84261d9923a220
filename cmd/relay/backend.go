package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/config"
	"github.com/fwojciec/relay/file"
	relayjson "github.com/fwojciec/relay/json"
	relayredis "github.com/fwojciec/relay/redis"
	"github.com/fwojciec/relay/sqlite"
	"github.com/redis/go-redis/v9"
)

// backend bundles the stores selected by store.backend together with the
// operator operations each one supports.
type backend struct {
	prompts relay.PromptStore
	logs    relay.LogStore
	secrets relay.SecretStore

	// location names where the stores live; sections lists what init
	// prepares there.
	location string
	sections func(ctx context.Context) ([]string, error)

	setPrompt func(ctx context.Context, prompt string) error
	records   func(ctx context.Context, limit int) ([]relay.ExchangeRecord, error)
	initStore func(ctx context.Context) error
	close     func() error
}

// openBackend constructs the stores for cfg. Secrets always come from
// config properties; the redis backend adds its secrets hash as a fallback.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	props := config.NewProperties(cfg)
	noop := func(context.Context) error { return nil }

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &backend{
			prompts:  &sqlite.PromptSheet{DB: db, Sheet: cfg.SQLite.PromptSheet, Cell: cfg.SQLite.PromptCell},
			logs:     &sqlite.LogSheet{DB: db, Sheet: cfg.SQLite.LogSheet},
			secrets:  props,
			location: db.Path(),
			sections: db.Sheets,
			setPrompt: func(ctx context.Context, prompt string) error {
				return db.SetCell(ctx, cfg.SQLite.PromptSheet, cfg.SQLite.PromptCell, prompt)
			},
			records: func(ctx context.Context, limit int) ([]relay.ExchangeRecord, error) {
				return db.Rows(ctx, cfg.SQLite.LogSheet, limit)
			},
			initStore: func(ctx context.Context) error {
				if err := db.CreateSheet(ctx, cfg.SQLite.PromptSheet); err != nil {
					return err
				}
				return db.CreateSheet(ctx, cfg.SQLite.LogSheet)
			},
			close: db.Close,
		}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := relayredis.NewStore(client, relayredis.Keys{
			Prompt:  cfg.Redis.PromptKey,
			Secrets: cfg.Redis.SecretsKey,
			Log:     cfg.Redis.LogKey,
		})
		return &backend{
			prompts:  store,
			logs:     store,
			secrets:  secretChain{props, store},
			location: cfg.Redis.Addr,
			sections: func(context.Context) ([]string, error) {
				return []string{cfg.Redis.PromptKey, cfg.Redis.SecretsKey, cfg.Redis.LogKey}, nil
			},
			setPrompt: store.SetPrompt,
			records:   store.Records,
			initStore: noop,
			close:     store.Close,
		}, nil

	case config.BackendFile:
		prompt := &file.PromptFile{Path: cfg.File.PromptPath}
		logs := relayjson.NewLogStore(cfg.File.LogPath)
		return &backend{
			prompts:  prompt,
			logs:     logs,
			secrets:  props,
			location: filepath.Dir(cfg.File.LogPath),
			sections: func(context.Context) ([]string, error) {
				return []string{prompt.Path, logs.Path()}, nil
			},
			setPrompt: prompt.SetPrompt,
			records: func(_ context.Context, limit int) ([]relay.ExchangeRecord, error) {
				recs, err := relayjson.Load(logs.Path())
				if errors.Is(err, relay.ErrNotFound) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				if limit > 0 && len(recs) > limit {
					recs = recs[len(recs)-limit:]
				}
				out := make([]relay.ExchangeRecord, len(recs))
				for i, r := range recs {
					out[i] = r.ExchangeRecord
				}
				return out, nil
			},
			initStore: noop,
			close:     func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("store.backend %q: %w", cfg.Store.Backend, relay.ErrInvalidConfig)
}

// secretChain returns the first non-empty property.
type secretChain []relay.SecretStore

func (c secretChain) Property(ctx context.Context, name string) (string, error) {
	var errs []error
	for _, s := range c {
		v, err := s.Property(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v != "" {
			return v, nil
		}
	}
	return "", errors.Join(errs...)
}
