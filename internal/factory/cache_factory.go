package factory

import (
	"github.com/mikey/phishguard/internal/adapters/cache"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates the domain age cache based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAgeCache creates the shared domain age cache
func (f *CacheFactory) CreateAgeCache() core.DomainAgeCache {
	capacity := f.cfg.GetFeatures().CacheCapacity
	if capacity <= 0 {
		f.logger.Warn("Invalid cache capacity, using default", zap.Int("capacity", capacity))
		capacity = 1024
	}
	return cache.NewMemoryCache(f.logger, capacity)
}
