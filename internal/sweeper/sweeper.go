package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/UFUNY/LiUNA-Dispatch/internal/engine"
)

// midnightSpec fires at the start of every day in the scheduler's location.
const midnightSpec = "0 0 * * *"

// Sweeper runs the past-date job sweep on load and again at every midnight,
// so jobs scheduled for a finished day are retired even while the process
// stays up across date boundaries.
type Sweeper struct {
	Engine *engine.Engine
	Log    zerolog.Logger

	c *cron.Cron
}

func New(eng *engine.Engine, log zerolog.Logger) *Sweeper {
	return &Sweeper{Engine: eng, Log: log}
}

// Start performs a catch-up sweep immediately, then schedules the midnight
// run. The catch-up error is returned; scheduled run errors are only logged.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.run(ctx); err != nil {
		return err
	}
	s.c = cron.New(cron.WithLocation(s.Engine.Config.Location()))
	if _, err := s.c.AddFunc(midnightSpec, func() {
		if _, err := s.run(context.Background()); err != nil {
			s.Log.Error().Err(err).Msg("scheduled sweep failed")
		}
	}); err != nil {
		return err
	}
	s.c.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Sweeper) Stop() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
}

func (s *Sweeper) run(ctx context.Context) (int, error) {
	started := time.Now()
	n, err := s.Engine.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Log.Info().Int("deactivated", n).Dur("took", time.Since(started)).Msg("sweep complete")
	}
	return n, nil
}
