package infrastructure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ContactThrottle rate-limits inbound messages per contact. Messages over
// the rate are dropped before dispatch.
type ContactThrottle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	rate     rate.Limit
	burst    int
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewContactThrottle creates a throttle allowing r messages per second with
// the given burst per contact. Stale entries are cleaned up in the background.
func NewContactThrottle(r float64, burst int) *ContactThrottle {
	ct := &ContactThrottle{
		limiters: make(map[string]*throttleEntry),
		rate:     rate.Limit(r),
		burst:    burst,
	}

	go ct.cleanup()

	return ct
}

// Allow reports whether the contact may send another message now
func (ct *ContactThrottle) Allow(contact string) bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	entry, exists := ct.limiters[contact]
	if !exists {
		entry = &throttleEntry{limiter: rate.NewLimiter(ct.rate, ct.burst)}
		ct.limiters[contact] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// cleanup removes limiters not used in the last 10 minutes
func (ct *ContactThrottle) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		ct.mu.Lock()
		now := time.Now()
		for contact, entry := range ct.limiters {
			if now.Sub(entry.lastSeen) > 10*time.Minute {
				delete(ct.limiters, contact)
			}
		}
		ct.mu.Unlock()
	}
}
