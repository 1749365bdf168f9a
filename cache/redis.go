package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis connects to Redis from environment configuration. The service
// keeps working without Redis (no cache, no distributed lock, in-memory
// notifications), so callers may treat a failure here as non-fatal.
func InitRedis() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		host := os.Getenv("REDIS_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		addr = fmt.Sprintf("%s:%s", host, port)
	}

	c := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          0,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 5 * time.Second,
		PoolSize:    20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}

	client = c
	log.Printf("redis connected at %s", addr)
	return nil
}

// GetClient returns the shared Redis client.
func GetClient() (*redis.Client, error) {
	if client == nil {
		return nil, ErrRedisNotAvailable
	}
	return client, nil
}

// CloseRedis closes the shared client.
func CloseRedis() {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Printf("failed to close redis: %v", err)
	}
	client = nil
}
