package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PortalLink/internal/app/model"
	infraPrometheus "github.com/sifan077/PortalLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

const defaultHighlightTTL = 5 * time.Minute

// HighlightCache holds the highlighted articles of each portal. Failures are
// logged and treated as misses; the database stays the source of truth.
//
// A read-through fill reads Generation before querying the database and
// hands it to Set. Invalidate bumps the generation, so a fill that started
// before a write landed is dropped instead of restoring the old holder.
type HighlightCache interface {
	Get(ctx context.Context, portalID int64) ([]model.Highlight, bool)
	Generation(ctx context.Context, portalID int64) (int64, error)
	Set(ctx context.Context, portalID, generation int64, highlights []model.Highlight)
	Invalidate(ctx context.Context, portalID int64)
}

// HighlightKey is the Redis key holding a portal's highlights.
func HighlightKey(portalID int64) string {
	return "portallink:highlights:" + strconv.FormatInt(portalID, 10)
}

// GenerationKey is the Redis counter bumped on every invalidation of a portal.
func GenerationKey(portalID int64) string {
	return "portallink:highlights:gen:" + strconv.FormatInt(portalID, 10)
}

var errStaleFill = errors.New("highlight cache generation moved")

type redisHighlightCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewHighlightCache returns a Redis-backed cache, or a no-op cache when
// client is nil.
func NewHighlightCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) HighlightCache {
	if client == nil {
		return NopHighlightCache{}
	}
	if ttl <= 0 {
		ttl = defaultHighlightTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisHighlightCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisHighlightCache) Get(ctx context.Context, portalID int64) ([]model.Highlight, bool) {
	raw, err := c.client.Get(ctx, HighlightKey(portalID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("highlight cache read failed", zap.Int64("portal_id", portalID), zap.Error(err))
		}
		infraPrometheus.ObserveCacheLookup(false)
		return nil, false
	}

	var highlights []model.Highlight
	if err := json.Unmarshal(raw, &highlights); err != nil {
		c.logger.Warn("highlight cache entry corrupted", zap.Int64("portal_id", portalID), zap.Error(err))
		c.Invalidate(ctx, portalID)
		infraPrometheus.ObserveCacheLookup(false)
		return nil, false
	}
	infraPrometheus.ObserveCacheLookup(true)
	return highlights, true
}

func (c *redisHighlightCache) Generation(ctx context.Context, portalID int64) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(portalID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.logger.Warn("highlight cache generation read failed", zap.Int64("portal_id", portalID), zap.Error(err))
		return 0, err
	}
	return gen, nil
}

// Set stores highlights only while the portal is still at generation.
func (c *redisHighlightCache) Set(ctx context.Context, portalID, generation int64, highlights []model.Highlight) {
	data, err := json.Marshal(highlights)
	if err != nil {
		c.logger.Warn("highlight cache encode failed", zap.Int64("portal_id", portalID), zap.Error(err))
		return
	}

	genKey := GenerationKey(portalID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, HighlightKey(portalID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("highlight cache fill dropped after invalidation", zap.Int64("portal_id", portalID))
	default:
		c.logger.Warn("highlight cache write failed", zap.Int64("portal_id", portalID), zap.Error(err))
	}
}

func (c *redisHighlightCache) Invalidate(ctx context.Context, portalID int64) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(portalID))
		pipe.Del(ctx, HighlightKey(portalID))
		return nil
	})
	if err != nil {
		c.logger.Warn("highlight cache invalidation failed", zap.Int64("portal_id", portalID), zap.Error(err))
	}
}

// NopHighlightCache never holds anything.
type NopHighlightCache struct{}

func (NopHighlightCache) Get(context.Context, int64) ([]model.Highlight, bool) { return nil, false }
func (NopHighlightCache) Generation(context.Context, int64) (int64, error)     { return 0, nil }
func (NopHighlightCache) Set(context.Context, int64, int64, []model.Highlight) {}
func (NopHighlightCache) Invalidate(context.Context, int64)                    {}
