package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiosim/internal/api"
	"studiosim/internal/catalog"
	"studiosim/internal/config"
	"studiosim/internal/db"
	"studiosim/internal/delegation"
	"studiosim/internal/feed"
	"studiosim/internal/game"
	"studiosim/internal/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	store, err := db.Open(ctx, cfg.Store.DatabaseURL, cfg.Store.SQLitePath, logger)
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("catalog load failed", "path", cfg.CatalogPath, "err", err)
		os.Exit(1)
	}

	gameSvc := game.NewService(store, cat, logger, cfg.RandomSeed)
	hub := feed.NewHub(logger)
	gameSvc.Subscribe(hub.Publish)

	if cfg.Discord.Enabled() {
		discord, err := notify.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID, logger)
		if err != nil {
			logger.Error("discord init failed", "err", err)
			os.Exit(1)
		}
		gameSvc.Subscribe(discord.Publish)
		go discord.Run(ctx)
	}

	// Without the in-process scheduler the worker drives delegating studios
	// and the API only flips the flag.
	var deleg api.Delegator
	if cfg.RunScheduler {
		sched := delegation.New(ctx, gameSvc, cfg.DelegationEvery, logger)
		defer sched.StopAll()
		if err := sched.Sync(ctx); err != nil {
			logger.Error("delegation resume failed", "err", err)
		}
		deleg = sched
	}

	server := api.New(logger, gameSvc, hub, deleg)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("studio api listening", "addr", cfg.Addr, "scheduler", cfg.RunScheduler)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
