package polls

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/classpulse/livepoll/internal/models"
)

// HistoryCache is a read-through cache in front of the Store.
type HistoryCache interface {
	Get(ctx context.Context, limit int) ([]models.PollRecord, bool, error)
	Set(ctx context.Context, limit int, recs []models.PollRecord) error
	Invalidate(ctx context.Context) error
}

// History serves recent finished polls, newest first.
type History struct {
	store  Store
	cache  HistoryCache
	group  singleflight.Group
	logger *zap.Logger

	// generation is bumped by Invalidate. A page read from the store under an
	// older generation is never left in the cache.
	generation atomic.Uint64
}

// NewHistory creates a history reader. cache may be nil.
func NewHistory(store Store, cache HistoryCache, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{store: store, cache: cache, logger: logger}
}

// Recent returns up to limit records. Concurrent misses for the same limit share one store query.
func (h *History) Recent(ctx context.Context, limit int) ([]models.PollRecord, error) {
	if h.cache != nil {
		recs, ok, err := h.cache.Get(ctx, limit)
		if err != nil {
			h.logger.Warn("poll history cache read failed", zap.Error(err))
		} else if ok {
			return recs, nil
		}
	}

	v, err, _ := h.group.Do(strconv.Itoa(limit), func() (interface{}, error) {
		gen := h.generation.Load()
		recs, err := h.store.ListRecent(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("list poll history: %w", err)
		}
		if recs == nil {
			recs = []models.PollRecord{}
		}
		if h.cache != nil {
			h.fill(ctx, gen, limit, recs)
		}
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.PollRecord), nil
}

// fill caches a page read under generation gen. If an Invalidate ran while
// the page was being read or written, the page is dropped again.
func (h *History) fill(ctx context.Context, gen uint64, limit int, recs []models.PollRecord) {
	if h.generation.Load() != gen {
		h.logger.Debug("poll history changed during read, not caching", zap.Int("limit", limit))
		return
	}
	if err := h.cache.Set(ctx, limit, recs); err != nil {
		h.logger.Warn("poll history cache write failed", zap.Error(err))
		return
	}
	if h.generation.Load() != gen {
		h.dropCache(ctx)
	}
}

// Invalidate drops cached pages after a new poll is saved.
func (h *History) Invalidate(ctx context.Context) {
	h.generation.Add(1)
	if h.cache == nil {
		return
	}
	h.dropCache(ctx)
}

func (h *History) dropCache(ctx context.Context) {
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("poll history cache invalidate failed", zap.Error(err))
	}
}
