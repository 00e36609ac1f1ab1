package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/crisislab/triage-cli/internal/store"
)

// initStore opens the run-history store per config. An empty driver
// returns (nil, nil): run recording is optional and commands treat a
// nil store as "don't record".
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "":
		return nil, nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "triage.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// requireStore is initStore for commands that cannot run without one.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("store driver is required (TRIAGE_STORE_DRIVER=sqlite or postgres)")
	}
	return st, nil
}
