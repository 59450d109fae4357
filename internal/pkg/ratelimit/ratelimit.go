package ratelimit

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/aurumpay/goldlock/internal/pkg/cache"
	"github.com/aurumpay/goldlock/internal/pkg/env"
)

var storage *redis.Storage

// NewStorage builds the shared Redis-backed limiter storage, reusing the
// cache client's connection settings. Database 1 keeps limiter keys out
// of the cache keyspace.
func NewStorage() *redis.Storage {
	if storage != nil {
		return storage
	}

	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		// Prefer password from the underlying client if present
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage = redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
	return storage
}

// New builds a per-client rate limiter with the shared Redis storage.
func New(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Storage:    NewStorage(),
	})
}
