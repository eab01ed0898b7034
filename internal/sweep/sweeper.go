package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/sujalbistaa/confessly/internal/confession"
	"github.com/sujalbistaa/confessly/internal/metrics"
	"github.com/sujalbistaa/confessly/internal/ws"
)

// Sweeper periodically archives confessions whose score has sunk to
// the threshold or below. It owns its own schedule: Start arms it,
// Stop drains it. RunOnce is the whole pass and is what tests call.
type Sweeper struct {
	svc       *confession.Service
	hub       *ws.Hub
	threshold int
	interval  time.Duration
	cron      *cron.Cron
}

// New builds a sweeper. hub may be nil when no live feed is wired.
func New(svc *confession.Service, hub *ws.Hub, threshold int, interval time.Duration) *Sweeper {
	return &Sweeper{
		svc:       svc,
		hub:       hub,
		threshold: threshold,
		interval:  interval,
	}
}

// Start schedules RunOnce on the configured interval. The first pass
// happens one interval after Start, not immediately.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			log.Error().Err(err).Msg("sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	log.Info().Dur("interval", s.interval).Int("threshold", s.threshold).Msg("sweep scheduled")
	return nil
}

// Stop cancels the schedule and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce performs a single archive pass and returns how many
// confessions it archived.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	n, err := s.svc.ArchiveLowScores(ctx, s.threshold)
	if err != nil {
		return n, err
	}
	if n > 0 {
		metrics.ArchivedTotal.Add(float64(n))
		if s.hub != nil {
			s.hub.Notify(ws.Event{Type: "archived", Data: map[string]int{"count": n}})
		}
		log.Info().Int("archived", n).Msg("sweep complete")
	}
	return n, nil
}
