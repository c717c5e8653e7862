package store

import (
	"context"
	"fmt"

	"github.com/dgallion1/todotree/internal/config"
	"github.com/dgallion1/todotree/internal/pathstore"
	"github.com/dgallion1/todotree/internal/todolist"
)

// Open builds the backend cfg selects, wrapped with latency stats.
func Open(ctx context.Context, cfg config.Config) (*Instrumented, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var s Store
	switch cfg.Backend {
	case config.BackendFile:
		format, err := todolist.ParseFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		s, err = NewFile(cfg.DataDir, format)
		if err != nil {
			return nil, err
		}
	case config.BackendSQL:
		db, err := OpenSQL(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s = db
	case config.BackendPathstore:
		client := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		s = NewPathstore(client, cfg.PathstorePrefix)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return Instrument(s, cfg.Backend, cfg.StatsWindow), nil
}
