package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/services"
)

const summaryKeyPrefix = "domain_summary:"

// SummaryCache caches domain qualification summaries in Redis. Misses and
// Redis failures both fall through to the store; the cache is never
// authoritative.
type SummaryCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewSummaryCache connects using REDIS_ADDR. Callers treat a nil cache as
// caching disabled, so a missing address is an error here, not a fallback.
func NewSummaryCache(log *logger.Logger) (*SummaryCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &SummaryCache{
		log: log.With("service", "RedisSummaryCache"),
		rdb: rdb,
		ttl: 10 * time.Minute,
	}, nil
}

func (c *SummaryCache) Get(ctx context.Context, domainID uuid.UUID) (*services.DomainSummary, bool) {
	raw, err := c.rdb.Get(ctx, summaryKeyPrefix+domainID.String()).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("summary cache read failed", "domain_id", domainID, "error", err)
		}
		return nil, false
	}
	var summary services.DomainSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		c.log.Warn("summary cache payload corrupt, dropping", "domain_id", domainID, "error", err)
		_ = c.rdb.Del(ctx, summaryKeyPrefix+domainID.String()).Err()
		return nil, false
	}
	return &summary, true
}

func (c *SummaryCache) Set(ctx context.Context, domainID uuid.UUID, summary *services.DomainSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		c.log.Warn("summary cache encode failed", "domain_id", domainID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, summaryKeyPrefix+domainID.String(), raw, c.ttl).Err(); err != nil {
		c.log.Warn("summary cache write failed", "domain_id", domainID, "error", err)
	}
}

func (c *SummaryCache) Invalidate(ctx context.Context, domainID uuid.UUID) {
	if err := c.rdb.Del(ctx, summaryKeyPrefix+domainID.String()).Err(); err != nil {
		c.log.Warn("summary cache invalidate failed", "domain_id", domainID, "error", err)
	}
}

func (c *SummaryCache) Close() error {
	return c.rdb.Close()
}
