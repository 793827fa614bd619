package switchmon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultPortCount covers the 28-port access switches in the lab.
const DefaultPortCount = 28

// DefaultPollSchedule refreshes the dashboard every 15 seconds.
const DefaultPollSchedule = "@every 15s"

// PortFetcher fetches the overview for a single port.
type PortFetcher interface {
	PortOverview(ctx context.Context, port string) (*PortOverview, error)
}

// PollerConfig configures the port poller.
type PollerConfig struct {
	PortCount int
	Schedule  string
}

// DefaultPollerConfig returns the standard poller settings.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		PortCount: DefaultPortCount,
		Schedule:  DefaultPollSchedule,
	}
}

// Poller periodically refreshes the state of every front-panel port.
// A fetch failure for a port produces a placeholder entry rather than
// aborting the cycle, so the dashboard always shows a full port grid.
type Poller struct {
	fetcher  PortFetcher
	config   PollerConfig
	logger   *slog.Logger
	cron     *cron.Cron
	onUpdate func(map[string]PortOverview)

	mu       sync.Mutex
	snapshot map[string]PortOverview
}

// NewPoller creates a poller. onUpdate receives a copy of the full port
// snapshot after each refresh; it may be nil.
func NewPoller(fetcher PortFetcher, config PollerConfig, logger *slog.Logger, onUpdate func(map[string]PortOverview)) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PortCount <= 0 {
		config.PortCount = DefaultPortCount
	}
	if config.Schedule == "" {
		config.Schedule = DefaultPollSchedule
	}
	return &Poller{
		fetcher:  fetcher,
		config:   config,
		logger:   logger,
		onUpdate: onUpdate,
		snapshot: make(map[string]PortOverview),
	}
}

// errorPlaceholder marks a port whose state could not be fetched.
func errorPlaceholder() PortOverview {
	return PortOverview{
		AdminState:   "error",
		LinkState:    "error",
		Duplex:       "unknown",
		LinkSpeedBps: 0,
		MACInUse:     "",
	}
}

// Ports lists the front-panel port names, "1/1/1" through "1/1/N".
func (p *Poller) Ports() []string {
	ports := make([]string, 0, p.config.PortCount)
	for i := 1; i <= p.config.PortCount; i++ {
		ports = append(ports, fmt.Sprintf("1/1/%d", i))
	}
	return ports
}

// Refresh fetches every port once and updates the snapshot.
func (p *Poller) Refresh(ctx context.Context) {
	next := make(map[string]PortOverview, p.config.PortCount)
	for _, port := range p.Ports() {
		overview, err := p.fetcher.PortOverview(ctx, port)
		if err != nil {
			p.logger.Warn("port fetch failed", "port", port, "error", err)
			next[port] = errorPlaceholder()
			continue
		}
		next[port] = *overview
	}

	p.mu.Lock()
	p.snapshot = next
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(p.Snapshot())
	}
}

// Snapshot returns a copy of the latest port state.
func (p *Poller) Snapshot() map[string]PortOverview {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]PortOverview, len(p.snapshot))
	for k, v := range p.snapshot {
		out[k] = v
	}
	return out
}

// Start refreshes once immediately, then on the configured schedule.
func (p *Poller) Start(ctx context.Context) error {
	p.Refresh(ctx)

	c := cron.New()
	_, err := c.AddFunc(p.config.Schedule, func() {
		p.Refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule port poll: %w", err)
	}
	c.Start()

	p.mu.Lock()
	p.cron = c
	p.mu.Unlock()
	return nil
}

// Stop halts the schedule. A refresh in flight runs to completion.
func (p *Poller) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}
