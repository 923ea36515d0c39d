package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"supplymarket_api/metrics"
)

// BreakerKV fails fast while the wrapped store keeps erroring, so a dead
// database turns mutations into quick errors instead of stalled requests.
type BreakerKV struct {
	next    KeyValue
	breaker *gobreaker.CircuitBreaker
	name    string
}

func NewBreakerKV(next KeyValue, name string) *BreakerKV {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		// a missing key is an answer, not a store failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			metrics.SetBreakerState(cbName, breakerStateValue(to))
			log.WithFields(log.Fields{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Storage circuit breaker state changed")
		},
	})
	metrics.SetBreakerState(name, 0)

	return &BreakerKV{next: next, breaker: cb, name: name}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

func (b *BreakerKV) State() string {
	return b.breaker.State().String()
}

func (b *BreakerKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, key)
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	return v.([]byte), nil
}

func (b *BreakerKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value)
	})
	return b.wrap(err)
}

func (b *BreakerKV) Remove(ctx context.Context, key string) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.next.Remove(ctx, key)
	})
	return b.wrap(err)
}

func (b *BreakerKV) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("storage circuit %s: %w", b.name, err)
	}
	return err
}
