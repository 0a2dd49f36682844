package guest

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Sweeper runs Registry.Sweep on a cron schedule.
type Sweeper struct {
	cron     *cron.Cron
	registry *Registry
}

// NewSweeper registers the sweep job. schedule accepts standard five-field
// cron expressions and descriptors such as "@every 10m".
func NewSweeper(registry *Registry, schedule string) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(),
		registry: registry,
	}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("register guest sweep %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the scheduler in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
	slog.Info("Guest sweeper started")
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Guest sweeper stopped")
}

func (s *Sweeper) sweep() {
	removed := s.registry.Sweep()
	if removed > 0 {
		slog.Info("Expired guest sessions removed", "removed", removed, "active", s.registry.Len())
	}
}
