package monitoring

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/alvifsandana/qms-be/internal/services"
)

// Janitor runs periodic maintenance: purging expired session rows.
type Janitor struct {
	sessionSvc services.SessionServiceProvider
	eventSvc   services.EventServiceProvider
	schedule   cron.Schedule
	nextRun    time.Time
	ticker     *time.Ticker
	done       chan bool
}

// NewJanitor creates a janitor driven by a standard cron expression.
func NewJanitor(sessionSvc services.SessionServiceProvider, eventSvc services.EventServiceProvider, cronExpr string) (*Janitor, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", cronExpr, err)
	}
	return &Janitor{
		sessionSvc: sessionSvc,
		eventSvc:   eventSvc,
		schedule:   schedule,
		done:       make(chan bool),
	}, nil
}

// Run starts the janitor's ticking loop.
func (j *Janitor) Run() {
	log.Info().Msg("Starting background janitor")
	j.ticker = time.NewTicker(1 * time.Minute)
	defer j.ticker.Stop()

	// Sweep once immediately on start, then follow the schedule.
	j.sweep()
	j.nextRun = j.schedule.Next(time.Now())

	for {
		select {
		case <-j.done:
			log.Info().Msg("Stopping background janitor")
			return
		case now := <-j.ticker.C:
			if now.After(j.nextRun) {
				j.sweep()
				j.nextRun = j.schedule.Next(now)
			}
		}
	}
}

// Stop halts the janitor.
func (j *Janitor) Stop() {
	j.done <- true
}

// sweep removes expired session rows and records the result.
func (j *Janitor) sweep() {
	purged, err := j.sessionSvc.PurgeExpired()
	if err != nil {
		log.Error().Err(err).Msg("Janitor: failed to purge expired sessions")
		return
	}
	if purged == 0 {
		return
	}
	log.Info().Int64("purged", purged).Msg("Janitor: purged expired sessions")
	msg := fmt.Sprintf("Purged %d expired session(s)", purged)
	if err := j.eventSvc.Record("session.purge", "info", msg, nil); err != nil {
		log.Error().Err(err).Msg("Janitor: failed to record purge event")
	}
}
