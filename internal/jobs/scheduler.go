package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	DefaultResetPurgeSchedule = "0 0 * * * *" // hourly
	purgeTimeout              = 30 * time.Second
)

// ResetPurger clears expired password reset tokens.
type ResetPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// PurgeRecorder counts cleared tokens, typically *metrics.Metrics.
type PurgeRecorder interface {
	AddResetPurged(n int64)
}

type Scheduler struct {
	cron     *cron.Cron
	resets   ResetPurger
	recorder PurgeRecorder
	schedule string
	log      zerolog.Logger
}

func NewScheduler(resets ResetPurger, recorder PurgeRecorder, schedule string, log zerolog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultResetPurgeSchedule
	}
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		resets:   resets,
		recorder: recorder,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.resets == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.purgeResetTokens); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("reset token purge scheduled")
	return nil
}

// Stop halts the cron loop and returns a context that is done once any
// running purge has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) purgeResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.resets.Purge(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reset token purge failed")
		return
	}
	if s.recorder != nil {
		s.recorder.AddResetPurged(n)
	}
	if n > 0 {
		s.log.Info().Int64("cleared", n).Msg("expired reset tokens purged")
	}
}
