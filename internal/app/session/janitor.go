package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"talkroom/internal/pkg/logx"
)

// Janitor purges expired sessions from a Store, once on demand or on a
// cron schedule.
type Janitor struct {
	store     Store
	cron      *cron.Cron
	scheduled bool
	logger    zerolog.Logger
	now       func() time.Time
}

// NewJanitor schedules the purge with a standard cron expression or a
// descriptor such as "@hourly". An empty schedule leaves only Purge.
func NewJanitor(store Store, schedule string) (*Janitor, error) {
	j := &Janitor{
		store:  store,
		cron:   cron.New(),
		logger: logx.Logger().With().Str("component", "SessionJanitor").Logger(),
		now:    time.Now,
	}

	if schedule == "" {
		return j, nil
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid session cleanup schedule %q: %w", schedule, err)
	}
	j.scheduled = true
	return j, nil
}

// Scheduled reports whether Start runs a background purge.
func (j *Janitor) Scheduled() bool {
	return j.scheduled
}

// Start runs the scheduled purge in the background. It does nothing
// without a schedule.
func (j *Janitor) Start() {
	if !j.scheduled {
		return
	}
	j.cron.Start()
	j.logger.Info().Msg("Session janitor started.")
}

// Stop waits for a running purge to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	if !j.scheduled {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
	j.logger.Info().Msg("Session janitor stopped.")
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := j.Purge(ctx); err != nil {
		j.logger.Error().Err(err).Msg("Failed to purge expired sessions.")
	}
}

// Purge deletes sessions that have expired by now.
func (j *Janitor) Purge(ctx context.Context) (int64, error) {
	n, err := j.store.DeleteExpired(ctx, j.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Info().Int64("count", n).Msg("Purged expired sessions.")
	}
	return n, nil
}
