package geo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/geotrace/geotrace-go/internal/metrics"
)

const breakerName = "ipinfo"

// BreakerLookup short-circuits calls to a failing provider.
// The breaker opens after 5 consecutive failures and lets one request through again after 30s.
type BreakerLookup struct {
	next Lookup
	cb   *gobreaker.CircuitBreaker[map[string]any]
}

// NewBreakerLookup creates a new BreakerLookup wrapping next.
func NewBreakerLookup(next Lookup, log *slog.Logger) *BreakerLookup {
	metrics.GeoBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[map[string]any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isProviderHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("geo provider breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.GeoBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerLookup{next: next, cb: cb}
}

// Lookup calls the wrapped provider unless the breaker is open.
func (b *BreakerLookup) Lookup(ctx context.Context, ip string) (map[string]any, error) {
	return b.cb.Execute(func() (map[string]any, error) {
		return b.next.Lookup(ctx, ip)
	})
}

// State exposes the breaker state for tests and diagnostics.
func (b *BreakerLookup) State() gobreaker.State {
	return b.cb.State()
}

// isProviderHealthy reports whether err leaves the breaker counts untouched.
// Local refusals and callers that went away say nothing about the provider;
// a deadline that expired while waiting on it does.
func isProviderHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrQuotaExhausted) ||
		errors.Is(err, context.Canceled)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
