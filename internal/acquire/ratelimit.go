// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/bibliograph/pkg/types"
)

// Limits holds one token-bucket limiter per source. A token bucket gives a
// smoothed sliding window: a source configured for N calls per window may
// burst N, then refills at N/window. Limiters are internally synchronized,
// so Limits is the single shared resource a worker pool funnels through.
//
// The zero-value nil *Limits allows everything, as does any source without
// a configured quota.
type Limits struct {
	limiters map[types.Source]*rate.Limiter

	// now is the clock used for quota decisions. Tests inject a fake.
	now func() time.Time
}

// NewLimits builds per-source limiters from a source-name-to-calls map over
// the given window. A non-positive window defaults to one minute.
func NewLimits(perWindow map[string]int, window time.Duration) *Limits {
	if window <= 0 {
		window = time.Minute
	}
	l := &Limits{
		limiters: make(map[types.Source]*rate.Limiter, len(perWindow)),
		now:      time.Now,
	}
	for source, calls := range perWindow {
		if calls <= 0 {
			continue
		}
		perSecond := float64(calls) / window.Seconds()
		l.limiters[types.Source(source)] = rate.NewLimiter(rate.Limit(perSecond), calls)
	}
	return l
}

// Allow consumes one call from the source's quota, reporting false when the
// quota is exhausted. Unconfigured sources are never throttled.
func (l *Limits) Allow(source types.Source) bool {
	if l == nil {
		return true
	}
	limiter, ok := l.limiters[source]
	if !ok {
		return true
	}
	return limiter.AllowN(l.now(), 1)
}
