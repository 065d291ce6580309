// Package stats collects the worker's diagnostic counters. Counters are
// incremented atomically from concurrent route executions, read as a group
// when reported and reset on every travel-time swap; they steer nothing.
package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Counters is the live counter set. The zero value is ready to use.
type Counters struct {
	requests        atomic.Int64
	transitRequests atomic.Int64
	fastCarAttempts atomic.Int64
	fastCarHits     atomic.Int64
	fastWalkAttempt atomic.Int64
	fastWalkHits    atomic.Int64
	fallbacks       atomic.Int64
	failures        atomic.Int64
	embodiments     atomic.Int64
}

// IncRequest counts one received routing request.
func (c *Counters) IncRequest(withTransit bool) {
	c.requests.Add(1)
	if withTransit {
		c.transitRequests.Add(1)
	}
}

// IncFastAttempt counts one narrowed request sent to a fast instance.
func (c *Counters) IncFastAttempt(mode string) {
	switch mode {
	case "car":
		c.fastCarAttempts.Add(1)
	case "walk":
		c.fastWalkAttempt.Add(1)
	}
}

// IncFastHit counts a fast instance answering with at least one itinerary.
func (c *Counters) IncFastHit(mode string) {
	switch mode {
	case "car":
		c.fastCarHits.Add(1)
	case "walk":
		c.fastWalkHits.Add(1)
	}
}

// IncFallback counts one request (whole or narrowed) sent to the complete
// engine.
func (c *Counters) IncFallback() { c.fallbacks.Add(1) }

// IncFailure counts one request answered with a routing failure.
func (c *Counters) IncFailure() { c.failures.Add(1) }

// IncEmbodiment counts one leg embodiment.
func (c *Counters) IncEmbodiment() { c.embodiments.Add(1) }

// Snapshot is one reported counter state.
type Snapshot struct {
	At               time.Time `json:"at"`
	Requests         int64     `json:"requests"`
	TransitRequests  int64     `json:"transitRequests"`
	FastCarAttempts  int64     `json:"fastCarAttempts"`
	FastCarHits      int64     `json:"fastCarHits"`
	FastWalkAttempts int64     `json:"fastWalkAttempts"`
	FastWalkHits     int64     `json:"fastWalkHits"`
	Fallbacks        int64     `json:"fallbacks"`
	Failures         int64     `json:"failures"`
	Embodiments      int64     `json:"embodiments"`
}

// Snapshot reads and resets every counter. The values are a consistent
// enough group for diagnostics; individual counters are swapped one after
// the other without a global lock.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		At:               time.Now(),
		Requests:         c.requests.Swap(0),
		TransitRequests:  c.transitRequests.Swap(0),
		FastCarAttempts:  c.fastCarAttempts.Swap(0),
		FastCarHits:      c.fastCarHits.Swap(0),
		FastWalkAttempts: c.fastWalkAttempt.Swap(0),
		FastWalkHits:     c.fastWalkHits.Swap(0),
		Fallbacks:        c.fallbacks.Swap(0),
		Failures:         c.failures.Swap(0),
		Embodiments:      c.embodiments.Swap(0),
	}
}

// String renders the snapshot as one key=value log line.
func (s Snapshot) String() string {
	return fmt.Sprintf(
		"requests=%d transit=%d fastCar=%d/%d fastWalk=%d/%d fallbacks=%d failures=%d embodiments=%d",
		s.Requests, s.TransitRequests,
		s.FastCarHits, s.FastCarAttempts,
		s.FastWalkHits, s.FastWalkAttempts,
		s.Fallbacks, s.Failures, s.Embodiments,
	)
}
