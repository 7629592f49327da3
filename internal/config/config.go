package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreConfig selects the persistence backend. An empty DatabaseURL means
// the SQLite file at SQLitePath.
type StoreConfig struct {
	DatabaseURL string
	SQLitePath  string
}

type DiscordConfig struct {
	Token     string
	ChannelID string
}

func (d DiscordConfig) Enabled() bool { return d.Token != "" }

type APIConfig struct {
	Addr            string
	Store           StoreConfig
	CatalogPath     string
	RandomSeed      int64
	Discord         DiscordConfig
	DelegationEvery time.Duration
	RunScheduler    bool
}

type WorkerConfig struct {
	Store           StoreConfig
	CatalogPath     string
	RandomSeed      int64
	Discord         DiscordConfig
	DelegationEvery time.Duration
	SyncEvery       time.Duration
	RunOnce         bool
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("STUDIO_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:            addr,
		Store:           loadStore(),
		CatalogPath:     strings.TrimSpace(os.Getenv("STUDIO_CATALOG_PATH")),
		RandomSeed:      envInt64Default("STUDIO_RANDOM_SEED", 0),
		Discord:         loadDiscord(),
		DelegationEvery: envDurationDefault("STUDIO_DELEGATION_EVERY", 1500*time.Millisecond),
		RunScheduler:    envBoolDefault("STUDIO_API_RUN_SCHEDULER", false),
	}
	return cfg, errors.Join(cfg.Discord.validate(), validateCadence("STUDIO_DELEGATION_EVERY", cfg.DelegationEvery))
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		Store:           loadStore(),
		CatalogPath:     strings.TrimSpace(os.Getenv("STUDIO_CATALOG_PATH")),
		RandomSeed:      envInt64Default("STUDIO_RANDOM_SEED", 0),
		Discord:         loadDiscord(),
		DelegationEvery: envDurationDefault("STUDIO_DELEGATION_EVERY", 1500*time.Millisecond),
		SyncEvery:       envDurationDefault("STUDIO_WORKER_SYNC_EVERY", 5*time.Second),
		RunOnce:         envBoolDefault("STUDIO_WORKER_RUN_ONCE", false),
	}
	return cfg, errors.Join(
		cfg.Discord.validate(),
		validateCadence("STUDIO_DELEGATION_EVERY", cfg.DelegationEvery),
		validateCadence("STUDIO_WORKER_SYNC_EVERY", cfg.SyncEvery),
	)
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("STK_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func loadStore() StoreConfig {
	return StoreConfig{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:  envDefault("STUDIO_SQLITE_PATH", "studio.db"),
	}
}

func loadDiscord() DiscordConfig {
	return DiscordConfig{
		Token:     strings.TrimSpace(os.Getenv("STUDIO_DISCORD_TOKEN")),
		ChannelID: strings.TrimSpace(os.Getenv("STUDIO_DISCORD_CHANNEL")),
	}
}

func (d DiscordConfig) validate() error {
	if (d.Token == "") != (d.ChannelID == "") {
		return fmt.Errorf("STUDIO_DISCORD_TOKEN and STUDIO_DISCORD_CHANNEL must be set together")
	}
	return nil
}

func validateCadence(key string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
