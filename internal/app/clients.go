package app

import (
	"github.com/pagelift/outreach-backend/internal/clients/redis"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/services"
)

type Clients struct {
	SummaryCache *redis.SummaryCache
}

// wireClients builds optional external clients. A missing REDIS_ADDR disables
// the summary cache rather than failing startup.
func wireClients(log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")
	clients := Clients{}
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, summary cache disabled")
		return clients
	}
	cache, err := redis.NewSummaryCache(log)
	if err != nil {
		log.Warn("redis init failed, summary cache disabled", "error", err)
		return clients
	}
	clients.SummaryCache = cache
	return clients
}

// summaryCache returns the cache as the service-level interface, preserving a
// true nil when disabled.
func (c Clients) summaryCache() services.SummaryCache {
	if c.SummaryCache == nil {
		return nil
	}
	return c.SummaryCache
}

func (c Clients) Close() {
	if c.SummaryCache != nil {
		c.SummaryCache.Close()
	}
}
