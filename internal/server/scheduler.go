package server

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// StartRefresh reloads the provider catalog, bypassing the cache, on the
// given cron schedule until ctx is cancelled. An empty schedule disables
// the job.
func (s *Server) StartRefresh(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() { s.scheduledRefresh(ctx) })
	if err != nil {
		return fmt.Errorf("parsing refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	s.log.Info().Str("schedule", schedule).Msg("scheduled provider refresh")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func (s *Server) scheduledRefresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	catalog := s.current().Catalog
	if err := catalog.Load(ctx, true); err != nil {
		s.log.Error().Err(err).Msg("scheduled provider refresh failed")
		return
	}
	s.log.Info().Msg("scheduled provider refresh done")
}
