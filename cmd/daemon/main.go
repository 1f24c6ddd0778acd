// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/meetscribe/meetscribe/internal/api"
	"github.com/meetscribe/meetscribe/internal/config"
	"github.com/meetscribe/meetscribe/internal/export"
	xlog "github.com/meetscribe/meetscribe/internal/log"
	"github.com/meetscribe/meetscribe/internal/meeting"
	"github.com/meetscribe/meetscribe/internal/store"
	"github.com/meetscribe/meetscribe/internal/watch"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	xlog.Configure(xlog.Config{
		Level:   cfg.LogLevel,
		Service: "meetscribe",
		Version: version,
	})
	logger := xlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		logger.Fatal().
			Err(err).
			Str(xlog.FieldEvent, "daemon.data_dir_failed").
			Str(xlog.FieldPath, cfg.DataDir).
			Msg("failed to create data directory")
	}

	st, err := store.Open(cfg.StoreBackend, cfg.StorePath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xlog.FieldEvent, "daemon.store_open_failed").
			Str("backend", cfg.StoreBackend).
			Msg("failed to open meeting store")
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close meeting store")
		}
	}()

	manager := meeting.NewManager(st)
	server := api.New(cfg, manager, export.NotesExporter{})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx)
	})

	if cfg.WatchDir != "" {
		lang := meeting.Language(cfg.WatchLanguage)
		if !lang.Valid() {
			lang = meeting.LanguageMixed
		}
		watcher, err := watch.New(cfg.WatchDir, lang, manager)
		if err != nil {
			logger.Fatal().
				Err(err).
				Str(xlog.FieldEvent, "daemon.watch_failed").
				Str(xlog.FieldPath, cfg.WatchDir).
				Msg("failed to start watch folder intake")
		}
		g.Go(func() error {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	logger.Info().
		Str(xlog.FieldEvent, "daemon.started").
		Str("addr", cfg.Listen).
		Str("store", cfg.StoreBackend).
		Msg("meetscribe daemon started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().
			Err(err).
			Str(xlog.FieldEvent, "daemon.failed").
			Msg("daemon exited with error")
	}

	logger.Info().
		Str(xlog.FieldEvent, "daemon.stopped").
		Msg("meetscribe daemon stopped")
}
