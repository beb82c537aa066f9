package platform

import (
	"context"

	"github.com/aretw0/notepad/pkg/adapters/sqlite"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/metrics"
)

// Init opens and initializes the store for path.
// The path is a database file or sqlite.MemoryPath.
func Init(path string, opts ...Option) (core.Store, error) {
	o := applyOptions(opts)

	if o.store != nil {
		if err := o.store.Initialize(context.Background()); err != nil {
			return nil, err
		}
		return o.store, nil
	}

	store := sqlite.NewStore(sqliteConfig(path, o))
	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// sqliteConfig applies dev safety and maps options onto the store config.
func sqliteConfig(path string, o *options) sqlite.Config {
	if path == "" {
		path = sqlite.MemoryPath
	}

	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	resolved := ResolveDatabasePath(path, useTemp)

	if o.logger != nil {
		switch {
		case useTemp && resolved != path:
			o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
		case IsDevRun() && !o.devSafety:
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}

	return sqlite.Config{
		Path:          resolved,
		Logger:        o.logger,
		Metrics:       metrics.New(o.registerer),
		WatchExternal: o.watchExternal,
		BusyTimeout:   o.busyTimeout,
		ErrorHandler:  o.errorHandler,
	}
}
