package dataset

import (
	"fmt"
	"log/slog"

	"trade-dashboard/internal/config"
	"trade-dashboard/internal/geo"
)

const resolverCacheSize = 4096

// NewLoaderFromConfig builds a Loader with the country directory, any alias
// file, and the worker and sheet settings from cfg.
func NewLoaderFromConfig(cfg config.DataConfig, logger *slog.Logger) (*Loader, error) {
	var aliases map[string]string
	if cfg.AliasFile != "" {
		a, err := geo.LoadAliases(cfg.AliasFile)
		if err != nil {
			return nil, err
		}
		aliases = a
	}

	dir, err := geo.NewDirectory(aliases)
	if err != nil {
		return nil, fmt.Errorf("build country directory: %w", err)
	}
	resolver, err := geo.NewCachedResolver(dir, resolverCacheSize)
	if err != nil {
		return nil, err
	}
	logger.Debug("country directory ready", "names", dir.Len(), "aliases", len(aliases))

	return NewLoader(
		WithResolver(resolver),
		WithWorkers(cfg.ParseWorkers),
		WithSheet(cfg.Sheet),
		WithLogger(logger),
	), nil
}
