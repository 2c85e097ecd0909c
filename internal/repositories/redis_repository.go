package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	CheckCheckoutRateLimit(ctx context.Context, userID uuid.UUID) (bool, int, error)
}

// LockRepository hands out short-lived cluster-wide locks.
type LockRepository interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

type redisRepository struct {
	client *redis.Client
	cfg    *config.RateConfig
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("url", fmt.Sprintf("redis://%s:<password>@%s:%s", cfg.RedisConnect.Username, cfg.RedisConnect.Host, cfg.RedisConnect.Port)))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Successfully connected to Redis")
	return client, nil
}

func NewRedisRepo(client *redis.Client, cfg *config.RateConfig) *redisRepository {
	return &redisRepository{client: client, cfg: cfg}
}

// CheckCheckoutRateLimit counts checkout attempts in a sliding window.
// Returns isAllowed, seconds to wait, error.
func (r *redisRepository) CheckCheckoutRateLimit(ctx context.Context, userID uuid.UUID) (bool, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := fmt.Sprintf("checkout_attempts:%s", userID)

	now := time.Now()
	windowStart := now.Add(-r.cfg.WindowSize).UnixNano()

	pipe := r.client.Pipeline()

	// drop attempts that left the window
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))

	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})

	count := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()

	if attempts > r.cfg.MaxAttempts {

		scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{Key: key, Start: 0, Stop: 0}).Result()
		if err != nil || len(scores) == 0 {
			logger.Error("Failed to get oldest attempt time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, int(r.cfg.WindowSize.Seconds()), nil
		}

		oldest := time.Unix(0, int64(scores[0].Score))
		retryAfter := max(int(time.Until(oldest.Add(r.cfg.WindowSize)).Seconds()), 1)

		logger.Warn("Checkout rate limit exceeded", slog.String("userId", userID.String()), slog.Int64("attempts", attempts))
		return false, retryAfter, nil
	}

	return true, 0, nil
}

// AcquireLock sets name if it is absent. The returned token must be passed to ReleaseLock.
func (r *redisRepository) AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {

	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, "lock:"+name, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}

	return token, ok, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseLock deletes the lock only if token still owns it.
func (r *redisRepository) ReleaseLock(ctx context.Context, name, token string) error {

	if err := releaseScript.Run(ctx, r.client, []string{"lock:" + name}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}

	return nil
}
