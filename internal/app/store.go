package app

import (
	"fmt"
	"log/slog"

	"soilmon/internal/config"
	"soilmon/internal/db"
	"soilmon/internal/db/migrate"
	"soilmon/internal/tsdb"
	"soilmon/internal/tsdb/influx"
	"soilmon/internal/tsdb/sqlite"
)

// OpenStore builds the configured time-series backend. The returned close
// func releases everything OpenStore acquired.
func OpenStore(cfg config.Config, logger *slog.Logger) (tsdb.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.StoreInflux:
		store := influx.New(influx.Options{
			URL:     cfg.InfluxURL,
			Token:   cfg.InfluxToken,
			Org:     cfg.InfluxOrg,
			Bucket:  cfg.InfluxBucket,
			Timeout: cfg.InfluxTimeout,
		}, logger)
		return store, store.Close, nil

	case config.StoreSQLite:
		dbConn, err := db.Open(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		n, err := migrate.Run(dbConn)
		if err != nil {
			_ = db.Close(dbConn)
			return nil, nil, err
		}
		logger.Info("sqlite store ready", "path", cfg.SQLitePath, "migrations_applied", n)
		store := sqlite.New(dbConn, logger)
		closeFn := func() error {
			if err := store.Close(); err != nil {
				return err
			}
			return db.Close(dbConn)
		}
		return store, closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
