package room

import (
	"context"
	"log"
	"time"
)

const (
	// DefaultReapInterval is how often the reaper sweeps.
	DefaultReapInterval = 60 * time.Second
	// DefaultIdleTimeout is how long a room may go without activity.
	DefaultIdleTimeout = 10 * time.Minute
)

// Reaper expires rooms that have been idle for too long.
type Reaper struct {
	registry *Registry
	interval time.Duration
	idle     time.Duration
	clock    func() time.Time
}

// NewReaper builds a reaper over registry. Non-positive durations use the
// defaults.
func NewReaper(registry *Registry, interval, idle time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	clock := time.Now
	if registry != nil && registry.env.clock != nil {
		clock = registry.env.clock
	}
	return &Reaper{registry: registry, interval: interval, idle: idle, clock: clock}
}

// Run sweeps every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	if r == nil || r.registry == nil {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if expired := r.Sweep(r.clock()); expired > 0 {
				log.Printf("reaper: expired %d idle rooms", expired)
			}
		}
	}
}

// Sweep expires every room idle longer than the threshold at now and returns
// how many it closed.
func (r *Reaper) Sweep(now time.Time) int {
	if r == nil || r.registry == nil {
		return 0
	}
	expired := 0
	for _, room := range r.registry.Rooms() {
		if room.expireIdle(now, r.idle) {
			expired++
		}
	}
	return expired
}
