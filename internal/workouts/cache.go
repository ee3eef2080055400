package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RecommendationCache holds built recommendation views. Every Invalidate moves the user's
// generation forward, and a view is only stored while the generation it was read under is current.
type RecommendationCache interface {
	// Get returns false when there is no cached view for the user.
	Get(ctx context.Context, userID int) (*RecommendationView, bool, error)
	Generation(ctx context.Context, userID int) (int64, error)
	// Set returns false when the generation moved on and the view was not stored.
	Set(ctx context.Context, view *RecommendationView, generation int64) (bool, error)
	Invalidate(ctx context.Context, userID int) error
}

// generations outlive any cached view
const generationTTL = 24 * time.Hour

// setIfGenerationScript stores ARGV[2] under KEYS[2] for ARGV[3] ms, if KEYS[1] still holds ARGV[1].
const setIfGenerationScript = `
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`

type RedisRecommendationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRecommendationCache(rdb *redis.Client, ttl time.Duration) *RedisRecommendationCache {
	return &RedisRecommendationCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func RecommendationCacheKey(userID int) string {
	return fmt.Sprintf("recommendation::%d", userID)
}

func RecommendationGenerationKey(userID int) string {
	return fmt.Sprintf("recommendation::%d::gen", userID)
}

func (c *RedisRecommendationCache) Get(ctx context.Context, userID int) (*RecommendationView, bool, error) {
	raw, err := c.rdb.Get(ctx, RecommendationCacheKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	view := &RecommendationView{}
	if err := json.Unmarshal(raw, view); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached recommendation: %w", err)
	}
	return view, true, nil
}

func (c *RedisRecommendationCache) Generation(ctx context.Context, userID int) (int64, error) {
	gen, err := c.rdb.Get(ctx, RecommendationGenerationKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

func (c *RedisRecommendationCache) Set(ctx context.Context, view *RecommendationView, generation int64) (bool, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return false, fmt.Errorf("marshal recommendation: %w", err)
	}

	stored, err := c.rdb.Eval(ctx, setIfGenerationScript,
		[]string{RecommendationGenerationKey(view.UserID), RecommendationCacheKey(view.UserID)},
		strconv.FormatInt(generation, 10), string(raw), c.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func (c *RedisRecommendationCache) Invalidate(ctx context.Context, userID int) error {
	genKey := RecommendationGenerationKey(userID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, RecommendationCacheKey(userID))
		return nil
	})
	return err
}

// NoopRecommendationCache never caches. Used when no redis is configured.
// Set reports success, there is no generation to fall behind.
type NoopRecommendationCache struct{}

func (NoopRecommendationCache) Get(context.Context, int) (*RecommendationView, bool, error) {
	return nil, false, nil
}

func (NoopRecommendationCache) Generation(context.Context, int) (int64, error) {
	return 0, nil
}

func (NoopRecommendationCache) Set(context.Context, *RecommendationView, int64) (bool, error) {
	return true, nil
}

func (NoopRecommendationCache) Invalidate(context.Context, int) error {
	return nil
}
