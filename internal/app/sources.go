package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"proxycheck/internal/config"
	"proxycheck/internal/database"
	"proxycheck/internal/geolite"
	proxyqueue "proxycheck/internal/jobs/queue/proxy"
	"proxycheck/internal/proxylist"
	"proxycheck/internal/support"
)

// openSource builds the configured input source. The returned func releases
// whatever connection the source holds.
func openSource(ctx context.Context, cfg config.Config) (proxylist.Source, func(), error) {
	switch cfg.Source {
	case config.SourceRedis:
		client, err := support.GetRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("app: redis source: %w", err)
		}
		closer := func() {
			if err := support.CloseRedisClient(); err != nil {
				log.Warn("error closing redis client", "error", err)
			}
		}
		queue := proxyqueue.NewRedisProxyQueue(client, cfg.RedisKey)
		if count, err := queue.GetProxyCount(ctx); err == nil {
			log.Info("Reading proxies from redis", "key", cfg.RedisKey, "length", count)
		}
		return queue, closer, nil

	case config.SourceDatabase:
		db, err := database.SetupDB(database.WithPostgres(cfg.DSN()))
		if err != nil {
			return nil, nil, fmt.Errorf("app: database source: %w", err)
		}
		closer := func() {
			if err := database.Close(db); err != nil {
				log.Warn("error closing database", "error", err)
			}
		}
		if count, err := database.CountProxies(ctx, db); err == nil {
			log.Info("Reading proxies from database", "table", "proxies", "rows", count)
		}
		return database.NewProxySource(db), closer, nil

	default:
		return proxylist.NewFileSource(cfg.ProxyFile), func() {}, nil
	}
}

func openLocator(path string) geolite.Locator {
	if path == "" {
		return geolite.Noop{}
	}

	lookup, err := geolite.Open(path)
	if err != nil {
		log.Warn("GeoLite database unavailable, skipping country lookup", "path", path, "error", err)
		return geolite.Noop{}
	}
	return lookup
}
