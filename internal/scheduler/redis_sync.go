package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/index"
	"github.com/MrSnakeDoc/portal/internal/logger"
)

// LedgerReader lists persisted routes (see store/redis.Store)
type LedgerReader interface {
	ListRoutes(ctx context.Context) ([]*domain.Route, error)
}

// RedisSyncer restores the memory index from the ledger on startup
type RedisSyncer struct {
	ledger LedgerReader
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(ledger LedgerReader, idx *index.MemoryIndex, log logger.Logger) *RedisSyncer {
	return &RedisSyncer{
		ledger: ledger,
		index:  idx,
		logger: log,
	}
}

// Sync loads routes from Redis into the memory index
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing routes from redis to memory")

	routes, err := rs.ledger.ListRoutes(ctx)
	if err != nil {
		return err
	}

	if len(routes) == 0 {
		rs.logger.Info("no routes found in redis")
		return nil
	}

	rs.index.Replace(routes)

	rs.logger.Info("synced routes from redis",
		logger.Int("count", len(routes)))

	return nil
}
