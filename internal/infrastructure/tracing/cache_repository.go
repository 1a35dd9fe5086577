// Package tracing decorates infrastructure ports with Datadog spans so cache
// traffic shows up as its own layer in the trace view, separate from the
// MySQL spans the repositories open themselves.
package tracing

import (
	"context"
	"time"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/kanehiroyuu/blog-api/internal/usecase/port"
)

// TracedCache wraps the projection cache with per-command spans. The wrapped
// repository stays oblivious to tracing.
type TracedCache struct {
	inner port.CacheRepository
	ttl   time.Duration
}

func NewCacheRepositoryTracer(inner port.CacheRepository, ttl time.Duration) port.CacheRepository {
	return &TracedCache{inner: inner, ttl: ttl}
}

func (c *TracedCache) startSpan(ctx context.Context, name, command, key string) (tracer.Span, context.Context) {
	span, ctx := tracer.StartSpanFromContext(ctx, name)
	span.SetTag("db.type", "redis")
	span.SetTag("db.operation", command)
	span.SetTag("cache.key", key)
	return span, ctx
}

func (c *TracedCache) Set(ctx context.Context, key string, value interface{}) error {
	span, ctx := c.startSpan(ctx, "redis.set", "SET", key)
	defer span.Finish()
	span.SetTag("cache.ttl", c.ttl.Seconds())

	if err := c.inner.Set(ctx, key, value); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return err
	}
	return nil
}

func (c *TracedCache) Get(ctx context.Context, key string) (string, error) {
	span, ctx := c.startSpan(ctx, "redis.get", "GET", key)
	defer span.Finish()

	value, err := c.inner.Get(ctx, key)
	// A miss is a normal outcome, not a span error.
	span.SetTag("cache.hit", err == nil)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (c *TracedCache) Delete(ctx context.Context, key string) error {
	span, ctx := c.startSpan(ctx, "redis.delete", "DEL", key)
	defer span.Finish()

	if err := c.inner.Delete(ctx, key); err != nil {
		span.SetTag("error", true)
		span.SetTag("error.msg", err.Error())
		return err
	}
	return nil
}
