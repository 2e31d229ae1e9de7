package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/zhuyin/pkg/config"
	"github.com/japaniel/zhuyin/pkg/corpus"
	"github.com/japaniel/zhuyin/pkg/custom"
	"github.com/japaniel/zhuyin/pkg/db"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	conn   *sql.DB
	store  *custom.Store
	svc    *corpus.Service
}

func (o *rootOptions) openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	static, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Store.Path, err)
	}
	logger.Debug("database opened", "path", cfg.Store.Path)

	store := custom.NewStore(db.KVStore{DB: conn}, custom.WithKey(cfg.Store.Key))
	svc := corpus.NewService(static, store, corpus.WithLogger(logger))
	store.OnChange(svc.Invalidate)

	return &app{cfg: cfg, logger: logger, conn: conn, store: store, svc: svc}, nil
}

func (a *app) Close() error {
	return a.conn.Close()
}

// newLogger creates a *slog.Logger based on the provided LogConfig
// and sets it as the default logger via slog.SetDefault.
//
// Format "json" produces structured JSON output.
// Format "text" produces human-readable output with source info.
// Level is one of: debug, info, warn, error (case-insensitive); defaults to info.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
