// File: utils/cache.go
package utils

import (
	"classbook/config"
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the generic cache client.
var CacheClient *redis.Client

// InitCache initializes the generic Redis cache client (using DB from AppConfig for general caching).
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// RedisOnceStore remembers keys for a TTL; the first Claim of a key wins.
type RedisOnceStore struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

// Claim returns true the first time key is seen within the TTL.
func (s *RedisOnceStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.Client.SetNX(ctx, s.Prefix+key, time.Now().Unix(), s.TTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release forgets key so a later delivery can be processed again.
func (s *RedisOnceStore) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.Prefix+key).Err()
}
