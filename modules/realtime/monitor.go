package realtime

import (
	"context"
	"log"
	"time"
)

// DefaultProbeInterval is how often the monitor sweeps its connections. A
// connection survives at most two intervals of total silence.
const DefaultProbeInterval = 30 * time.Second

// Monitor detects half-open connections independent of message traffic. Each
// sweep evicts connections that stayed silent since the previous sweep, then
// clears every survivor's liveness flag and probes it. Any inbound frame,
// pong or peer ping restores the flag before the next sweep.
type Monitor struct {
	mux      *Mux
	interval time.Duration
}

// NewMonitor creates a monitor for one multiplexer's connection set.
func NewMonitor(mux *Mux, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &Monitor{mux: mux, interval: interval}
}

// Run sweeps on a fixed interval until the context is cancelled. The ticker
// is released on shutdown so no sweep fires after Stop.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep runs one probe pass over every tracked connection.
func (m *Monitor) Sweep() {
	for _, c := range m.mux.Connections() {
		if !c.expire() {
			log.Printf("[realtime] evicting unresponsive %s connection %s", c.Family(), c.ID())
			c.Terminate()
			m.mux.HandleClose(c)
			continue
		}
		if err := c.Ping(); err != nil {
			log.Printf("[realtime] ping failed for %s: %v", c.ID(), err)
		}
	}
}
