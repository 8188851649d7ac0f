package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	extratelimit "github.com/vnmchuo/ratelimiter"
)

// Limiter caps how often each tenant may run a cost analysis. It is a thin
// wrapper around github.com/vnmchuo/ratelimiter.
type Limiter struct {
	store extratelimit.Limiter
	route string
}

func NewLimiter(rdb *redis.Client, route string, requestsPerMinute int64) *Limiter {
	store := extratelimit.NewRedisStore(rdb,
		extratelimit.WithLimit(int(requestsPerMinute)),
		extratelimit.WithWindow(time.Minute),
	)
	return &Limiter{store: store, route: route}
}

func NewTestLimiter(store extratelimit.Limiter, route string) *Limiter {
	return &Limiter{store: store, route: route}
}

func (l *Limiter) key(tenantID string) string {
	return fmt.Sprintf("ratelimit:%s:tenant:%s", l.route, tenantID)
}

// Allow consumes one request from the tenant's window.
func (l *Limiter) Allow(ctx context.Context, tenantID string) (bool, error) {
	res, err := l.store.Allow(ctx, l.key(tenantID))
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

func (l *Limiter) Status(ctx context.Context, tenantID string) (*extratelimit.Result, error) {
	return l.store.Status(ctx, l.key(tenantID))
}
