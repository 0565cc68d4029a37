// Package client assembles the HTTP client used for all Albion stat API
// calls.
package client

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/jaxron/axonet/middleware/circuitbreaker"
	axonetRedis "github.com/jaxron/axonet/middleware/redis"
	"github.com/jaxron/axonet/middleware/retry"
	"github.com/jaxron/axonet/middleware/singleflight"
	"github.com/jaxron/axonet/pkg/client"
	"github.com/jaxron/axonet/pkg/client/middleware"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/redis"
	"github.com/albiongw/goodwill/internal/setup/config"
)

// NewAlbionClient constructs the HTTP client with a middleware chain for
// reliability and performance. Middleware order matters - each layer wraps
// the next one.
func NewAlbionClient(cfg *config.CommonConfig, redisManager *redis.Manager, zapLogger *zap.Logger) (*client.Client, error) {
	// Redis client for response caching
	redisClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	middlewares := []middleware.Middleware{
		circuitbreaker.New(
			cfg.CircuitBreaker.MaxFailures,
			time.Duration(cfg.CircuitBreaker.FailureThreshold)*time.Millisecond,
			time.Duration(cfg.CircuitBreaker.RecoveryTimeout)*time.Millisecond,
		),
		retry.New(
			cfg.Retry.MaxRetries,
			time.Duration(cfg.Retry.Delay)*time.Millisecond,
			time.Duration(cfg.Retry.MaxDelay)*time.Millisecond,
		),
		singleflight.New(),
		axonetRedis.New(redisClient, time.Duration(cfg.Albion.CacheTTL)*time.Minute),
	}

	return client.NewClient(
		client.WithMarshalFunc(sonic.Marshal),
		client.WithUnmarshalFunc(sonic.Unmarshal),
		client.WithLogger(NewLogger(zapLogger)),
		client.WithTimeout(time.Duration(cfg.Albion.RequestTimeout)*time.Millisecond),
		client.WithMiddleware(middlewares...),
	), nil
}
