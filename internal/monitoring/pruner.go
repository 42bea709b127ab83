package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/lmoren/listly-be/internal/services"
)

// Pruner deletes aged activity events on a cron schedule.
type Pruner struct {
	eventSvc  services.EventServiceProvider
	schedule  cron.Schedule
	retention time.Duration
	ticker    *time.Ticker
	done      chan bool
	nextRun   time.Time
}

// NewPruner parses the cron expression and builds a pruner. Returns an error
// for an invalid expression.
func NewPruner(eventSvc services.EventServiceProvider, cronExpression string, retention time.Duration) (*Pruner, error) {
	schedule, err := cron.ParseStandard(cronExpression)
	if err != nil {
		return nil, err
	}
	return &Pruner{
		eventSvc:  eventSvc,
		schedule:  schedule,
		retention: retention,
		done:      make(chan bool),
		nextRun:   schedule.Next(time.Now()),
	}, nil
}

// Run starts the pruner's ticking loop.
func (p *Pruner) Run() {
	log.Info().Time("next_run", p.nextRun).Msg("Starting background event pruner...")
	p.ticker = time.NewTicker(1 * time.Minute)
	defer p.ticker.Stop()

	for {
		select {
		case <-p.done:
			log.Info().Msg("Stopping background event pruner.")
			return
		case <-p.ticker.C:
			now := time.Now()
			if now.After(p.nextRun) {
				p.prune()
				p.nextRun = p.schedule.Next(now)
			}
		}
	}
}

// Stop halts the pruner.
func (p *Pruner) Stop() {
	p.done <- true
}

func (p *Pruner) prune() {
	cutoff := time.Now().Add(-p.retention)
	pruned, err := p.eventSvc.PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Pruner: failed to prune events")
		return
	}
	if pruned > 0 {
		log.Info().Int("pruned", pruned).Time("cutoff", cutoff).Msg("Pruned aged events")
	}
}
