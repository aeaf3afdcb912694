package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key formats
const (
	ChannelKeyFmt   = "channel:%s:%s" // accountID, kind
	BusinessNumsFmt = "numbers:%s"    // businessID

	channelTTL      = 5 * time.Minute
	businessNumsTTL = 2 * time.Minute
)

var client *redis.Client

// Init initializes the Redis connection
func Init() error {
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
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
		// Close the failed client and set to nil for graceful degradation
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

// SetClient overrides the client; used by tests with an in-memory server.
func SetClient(c *redis.Client) {
	client = c
}

// GetCachedChannel returns the cached channel settings JSON if available
func GetCachedChannel(ctx context.Context, accountID, kind string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	key := fmt.Sprintf(ChannelKeyFmt, accountID, kind)
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheChannel caches channel settings for 5 minutes
func CacheChannel(ctx context.Context, accountID, kind string, data []byte) {
	if client == nil {
		return
	}
	key := fmt.Sprintf(ChannelKeyFmt, accountID, kind)
	client.Set(ctx, key, data, channelTTL)
}

// InvalidateChannel drops the cached settings after any channel write
func InvalidateChannel(ctx context.Context, accountID, kind string) {
	if client == nil {
		return
	}
	key := fmt.Sprintf(ChannelKeyFmt, accountID, kind)
	client.Del(ctx, key)
}

// GetCachedBusinessNumbers returns the cached number list JSON if available
func GetCachedBusinessNumbers(ctx context.Context, businessID string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	key := fmt.Sprintf(BusinessNumsFmt, businessID)
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheBusinessNumbers caches a business's number list for 2 minutes
func CacheBusinessNumbers(ctx context.Context, businessID string, data []byte) {
	if client == nil {
		return
	}
	key := fmt.Sprintf(BusinessNumsFmt, businessID)
	client.Set(ctx, key, data, businessNumsTTL)
}

// InvalidateBusinessNumbers drops the cached list after provisioning
func InvalidateBusinessNumbers(ctx context.Context, businessID string) {
	if client == nil {
		return
	}
	key := fmt.Sprintf(BusinessNumsFmt, businessID)
	client.Del(ctx, key)
}
