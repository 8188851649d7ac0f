package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

var ErrBreakerOpen = errors.New("billing query circuit breaker is open")

// BreakerClient fails fast once the upstream billing API has failed
// maxFailures times in a row. It never retries.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerClient(next Client, maxFailures uint32) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "billing",
		MaxRequests: 1,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isSuccessful,
	}
	return &BreakerClient{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// isSuccessful keeps callers that hang up or time out from counting as
// upstream failures.
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (b *BreakerClient) QueryUsage(ctx context.Context, scope string, q Query) (*Result, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.QueryUsage(ctx, scope, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrBreakerOpen, err)
		}
		return nil, err
	}
	return result.(*Result), nil
}

func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
