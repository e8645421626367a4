package cleanupcache

import (
	"context"
	"log/slog"

	"timeback/internal/logging"
)

// Cleaner is the cleanup call being memoized.
type Cleaner interface {
	Clean(ctx context.Context, instruction, text string) (string, error)
}

// CachingCleaner serves cleanup responses from the store when it can and
// records fresh ones. Cache read and write failures are logged, never
// returned; errors from the inner cleaner are not cached.
type CachingCleaner struct {
	store  *Store
	inner  Cleaner
	model  string
	logger *slog.Logger
}

// NewCachingCleaner wraps inner. model separates entries produced by
// different cleanup models.
func NewCachingCleaner(store *Store, inner Cleaner, model string, logger *slog.Logger) *CachingCleaner {
	return &CachingCleaner{
		store:  store,
		inner:  inner,
		model:  model,
		logger: logging.NewComponentLogger(logger, "cleanupcache"),
	}
}

// Clean implements Cleaner.
func (c *CachingCleaner) Clean(ctx context.Context, instruction, text string) (string, error) {
	key := Key(c.model, instruction, text)
	logger := logging.WithContext(ctx, c.logger)
	if cached, ok, err := c.store.Get(ctx, key); err != nil {
		logging.WarnWithContext(logger, "cleanup cache read failed", "cleanup_cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "chunk is sent to the cleanup service"),
		)
	} else if ok {
		logger.Debug("cleanup cache hit", logging.String("key", key[:12]))
		return cached, nil
	}

	cleaned, err := c.inner.Clean(ctx, instruction, text)
	if err != nil {
		return "", err
	}
	if err := c.store.Put(ctx, key, c.model, cleaned); err != nil {
		logging.WarnWithContext(logger, "cleanup cache write failed", "cleanup_cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "response will be requested again next run"),
		)
	}
	return cleaned, nil
}
