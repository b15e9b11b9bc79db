package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"budgetbook/api/internal/service"
)

// Scheduler keeps the preset-category cache warm so category listings
// rarely hit the database for the shared preset rows. Session expiry is
// deliberately NOT handled here; expired sessions are purged lazily at
// login and ignored at authorization time.
type Scheduler struct {
	cron       *cron.Cron
	categories *service.CategoryService
	log        zerolog.Logger
}

func NewScheduler(categories *service.CategoryService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		categories: categories,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * * *", s.warmPresetCache); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for any running job, up to a bound.
func (s *Scheduler) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) warmPresetCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.categories.WarmPresetCache(ctx); err != nil {
		s.log.Error().Err(err).Msg("preset cache warm failed")
	}
}
