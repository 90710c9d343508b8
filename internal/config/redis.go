package config

// Redis backs the auth-endpoint rate limiter and the dashboard response
// cache.  When the server cannot be reached at startup NewRedisClient returns
// nil and both features fall back to pass-through.

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand (used when host/port are not both set)
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	host := envStr("REDIS_HOST", "")
	port := envStr("REDIS_PORT", "")
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	var tlsConf *tls.Config
	if v := envStr("REDIS_TLS", ""); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  envStr("REDIS_PASSWORD", ""),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
