// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"testing"
	"time"

	"github.com/pdiddy/bibliograph/pkg/types"
)

func TestLimitsQuotaAndRecovery(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimits(map[string]int{"unpaywall": 2}, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow(types.SourceUnpaywall) {
		t.Fatal("first call denied")
	}
	if !l.Allow(types.SourceUnpaywall) {
		t.Fatal("second call denied")
	}
	if l.Allow(types.SourceUnpaywall) {
		t.Fatal("third call within window allowed")
	}

	// After the window resets the full quota is available again.
	now = now.Add(time.Minute)
	if !l.Allow(types.SourceUnpaywall) {
		t.Fatal("call after window reset denied")
	}
	if !l.Allow(types.SourceUnpaywall) {
		t.Fatal("second call after window reset denied")
	}
	if l.Allow(types.SourceUnpaywall) {
		t.Fatal("quota not enforced after reset")
	}
}

func TestLimitsUnconfiguredSourceUnthrottled(t *testing.T) {
	l := NewLimits(map[string]int{"unpaywall": 1}, time.Minute)
	for n := 0; n < 100; n++ {
		if !l.Allow(types.SourceArxiv) {
			t.Fatal("unconfigured source throttled")
		}
	}
}

func TestLimitsNilAllowsEverything(t *testing.T) {
	var l *Limits
	if !l.Allow(types.SourceUnpaywall) {
		t.Fatal("nil Limits denied a call")
	}
}
