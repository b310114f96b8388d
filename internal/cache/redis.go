package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stock summary cache keys
const (
	StockSummaryKey    = "stock:summary"
	VariantStockKeyFmt = "stock:variant:%d"
)

var client *redis.Client

// Init initializes the Redis connection. A failed connection leaves the
// client nil; every helper degrades to a miss so the app runs without
// Redis.
func Init() error {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "redis"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// hashCredentials creates a hash of email+password for the auth cache key
func hashCredentials(email, password string) string {
	h := sha256.New()
	h.Write([]byte(email + ":" + password))
	return "auth:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// GetCachedAuth checks if credentials are cached and valid
func GetCachedAuth(ctx context.Context, email, password string) (int64, bool) {
	if client == nil {
		return 0, false
	}
	key := hashCredentials(email, password)
	userID, err := client.Get(ctx, key).Int64()
	if err != nil {
		return 0, false
	}
	return userID, true
}

// CacheAuth caches valid credentials for 15 minutes
func CacheAuth(ctx context.Context, email, password string, userID int64) {
	if client == nil {
		return
	}
	client.Set(ctx, hashCredentials(email, password), userID, 15*time.Minute)
}

// InvalidateAuth removes cached auth for a user (on password change)
func InvalidateAuth(ctx context.Context, email, password string) {
	if client == nil {
		return
	}
	client.Del(ctx, hashCredentials(email, password))
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// VariantStockKey builds the per-variant stock cache key
func VariantStockKey(variantID int) string {
	return fmt.Sprintf(VariantStockKeyFmt, variantID)
}

// InvalidateStockCaches clears stock summaries after any movement,
// lot mutation or product change.
func InvalidateStockCaches(ctx context.Context) {
	InvalidatePattern(ctx, "stock:*")
	InvalidatePattern(ctx, "products:*")
}

// InvalidateProductCaches clears the product catalog caches, including
// the public store listing.
func InvalidateProductCaches(ctx context.Context) {
	InvalidatePattern(ctx, "products:*")
	InvalidateKeys(ctx, "store:catalog")
}

// InvalidateOwnerCaches clears owner-related caches
func InvalidateOwnerCaches(ctx context.Context) {
	InvalidatePattern(ctx, "owners:*")
}

// InvalidateSettingCaches clears setting caches; settings drive due-date
// defaults and the online payment toggle.
func InvalidateSettingCaches(ctx context.Context) {
	InvalidatePattern(ctx, "settings:*")
}

// IsHealthy returns true if the Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
