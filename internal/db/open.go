package db

import (
	"context"
	"io"
	"log/slog"

	"studiosim/internal/game"
)

// Store is a game.Store that owns a connection.
type Store interface {
	game.Store
	io.Closer
}

// Open picks Postgres when databaseURL is set and the SQLite file otherwise.
func Open(ctx context.Context, databaseURL, sqlitePath string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if databaseURL != "" {
		s, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres store")
		return s, nil
	}
	s, err := OpenSQLite(sqlitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("using sqlite store", "path", sqlitePath)
	return s, nil
}
