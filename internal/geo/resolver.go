package geo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geotrace/geotrace-go/internal/ipaddr"
	"github.com/geotrace/geotrace-go/internal/metrics"
	"github.com/geotrace/geotrace-go/internal/model"
)

// Resolver turns an IP string into a GeoSnapshot. Resolve never fails: any
// problem along the way yields a nil snapshot.
type Resolver struct {
	lookup  Lookup
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time
}

// NewResolver creates a new Resolver. A non-positive timeout becomes 5s.
func NewResolver(lookup Lookup, timeout time.Duration, log *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		lookup:  lookup,
		timeout: timeout,
		log:     log,
		now:     time.Now,
	}
}

// Resolve returns nil for empty, invalid and private addresses without
// contacting the provider, and nil when the provider fails in any way.
func (r *Resolver) Resolve(ctx context.Context, ip string) (snap *model.GeoSnapshot) {
	norm, ok := ipaddr.Normalize(ip)
	if !ok {
		metrics.GeoLookups.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil
	}
	if ipaddr.IsPrivate(norm) {
		metrics.GeoLookups.WithLabelValues(metrics.OutcomePrivate).Inc()
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.fail(norm, fmt.Errorf("panic: %v", rec))
			snap = nil
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.lookup.Lookup(ctx, norm)
	metrics.GeoLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.fail(norm, err)
		return nil
	}
	if raw == nil {
		r.fail(norm, fmt.Errorf("empty provider payload"))
		return nil
	}

	snap = snapshotFrom(norm, raw, r.now())
	metrics.GeoLookups.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return snap
}

func (r *Resolver) fail(ip string, err error) {
	metrics.GeoLookups.WithLabelValues(metrics.OutcomeFailure).Inc()
	r.log.Warn("geo lookup failed", "ip", ip, "error", err)
}
