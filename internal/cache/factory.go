package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timmy/catknow/internal/config"
	"github.com/timmy/catknow/internal/logger"
	"github.com/timmy/catknow/internal/repository"
	"github.com/timmy/catknow/internal/storage"
)

// Driver names accepted in cache.driver.
const (
	DriverMemory   = "memory"
	DriverDatabase = "database"
	DriverRedis    = "redis"
	DriverObject   = "object"
)

// Purger is implemented by backends that can drop stale entries eagerly.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Backend is a constructed cache together with its release function.
type Backend struct {
	ResponseCache
	close func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// New builds the cache selected by cfg.Cache.Driver.
// A persistent backend that cannot be initialized falls back to the in-process
// cache with a warning, so the proxy keeps serving.
func New(ctx context.Context, cfg *config.Config, opts ...Option) *Backend {
	opts = append([]Option{WithName(cfg.Cache.Name), WithTTL(cfg.Cache.TTL)}, opts...)

	ctx = logger.SetComponent(ctx, "cache")
	b, err := newBackend(ctx, cfg, opts)
	if err != nil {
		ctx = logger.WithField(ctx, logger.FieldCacheStore, cfg.Cache.Driver)
		logger.CtxWarn(ctx, "Cache backend unavailable, falling back to memory: %v", err)
		return &Backend{ResponseCache: NewMemoryCache(opts...)}
	}
	logger.CtxInfo(ctx, "Response cache ready: store=%s, ttl=%s", b.Name(), cfg.Cache.TTL)
	return b
}

func newBackend(ctx context.Context, cfg *config.Config, opts []Option) (*Backend, error) {
	switch cfg.Cache.Driver {
	case "", DriverMemory:
		return &Backend{ResponseCache: NewMemoryCache(opts...)}, nil

	case DriverDatabase:
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		c := NewDatabaseCache(repository.NewCacheEntryRepository(db), opts...)
		return &Backend{ResponseCache: c, close: sqlDB.Close}, nil

	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c := NewRedisCache(rdb, opts...)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return &Backend{ResponseCache: c, close: rdb.Close}, nil

	case DriverObject:
		store, err := storage.NewStorage(&storage.S3Config{
			Type:      storage.StorageType(cfg.Storage.Type),
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			return nil, err
		}
		if s3, ok := store.(*storage.S3Storage); ok {
			if err := s3.EnsureBucket(ctx); err != nil {
				return nil, err
			}
		}
		return &Backend{ResponseCache: NewObjectCache(store, opts...)}, nil

	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Cache.Driver)
	}
}

// StartJanitor purges stale entries every interval until ctx is cancelled.
// Backends without eager purge are left to lazy expiry.
func StartJanitor(ctx context.Context, c ResponseCache, interval time.Duration) {
	if b, ok := c.(*Backend); ok {
		c = b.ResponseCache
	}
	p, ok := c.(Purger)
	if !ok || interval <= 0 {
		return
	}

	ctx = logger.SetComponent(ctx, "cache")
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := p.Purge(ctx)
				if err != nil {
					logger.CtxError(ctx, "Cache purge failed: %v", err)
					continue
				}
				if n > 0 {
					logger.With(logger.Fields{logger.FieldCacheStore: c.Name()}).
						WithCount(int(n)).
						Debug(ctx, "Purged stale cache entries")
				}
			}
		}
	}()
}
