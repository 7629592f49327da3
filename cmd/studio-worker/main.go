package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiosim/internal/catalog"
	"studiosim/internal/config"
	"studiosim/internal/db"
	"studiosim/internal/delegation"
	"studiosim/internal/game"
	"studiosim/internal/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
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

	svc := game.NewService(store, cat, logger, cfg.RandomSeed)
	if cfg.Discord.Enabled() {
		discord, err := notify.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID, logger)
		if err != nil {
			logger.Error("discord init failed", "err", err)
			os.Exit(1)
		}
		svc.Subscribe(discord.Publish)
		go discord.Run(ctx)
	}

	if cfg.RunOnce {
		if err := runOnce(ctx, svc, logger); err != nil {
			logger.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	sched := delegation.New(ctx, svc, cfg.DelegationEvery, logger)
	defer sched.StopAll()
	if err := sched.Sync(ctx); err != nil {
		logger.Error("delegation sync failed", "err", err)
	}

	ticker := time.NewTicker(cfg.SyncEvery)
	defer ticker.Stop()

	logger.Info("worker started", "sync_every", cfg.SyncEvery.String(), "delegation_every", cfg.DelegationEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := sched.Sync(ctx); err != nil {
				logger.Error("delegation sync failed", "err", err)
				continue
			}
			logger.Debug("delegation sync complete", "running", len(sched.Running()))
		}
	}
}

// runOnce gives every delegating studio exactly one cycle.
func runOnce(ctx context.Context, svc *game.Service, logger *slog.Logger) error {
	ids, err := svc.DelegatingCompanies(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, rep, err := svc.RunDelegationCycle(ctx, id); err != nil {
			logger.Warn("delegation cycle skipped", "company_id", id, "err", err)
		} else {
			logger.Info("delegation cycle", "company_id", id, "action", rep.Action, "year", rep.Tick.Year, "month", rep.Tick.Month)
		}
	}
	return nil
}
