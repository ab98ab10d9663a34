package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	jobRegisteredUsers = "registered_users"
	timeoutDuration    = 30 * time.Second
)

type userCounter interface {
	Count(ctx context.Context) (int, error)
}

type statsRecorder interface {
	SetRegisteredUsers(n int)
	CronJob(name string, job func())
}

// StatsJob periodically refreshes account gauges.
type StatsJob struct {
	users   userCounter
	metrics statsRecorder
	logger  zerolog.Logger
	cron    *cron.Cron
	spec    string
	cancel  context.CancelFunc
}

func NewStatsJob(users userCounter, m statsRecorder, spec string, logger zerolog.Logger) *StatsJob {
	logger = logger.With().Str("component", "StatsJob").Logger()
	return &StatsJob{
		users:   users,
		metrics: m,
		logger:  logger,
		cron:    cron.New(),
		spec:    spec,
	}
}

// Start refreshes once immediately and then on every tick of the schedule.
func (j *StatsJob) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	if _, err := j.cron.AddFunc(j.spec, func() { j.RefreshUsers(ctx) }); err != nil {
		cancel()
		j.logger.Error().Err(err).Str("spec", j.spec).Msg("failed to schedule stats job")
		return err
	}

	j.RefreshUsers(ctx)
	j.cron.Start()
	j.logger.Info().Str("spec", j.spec).Msg("stats job started")
	return nil
}

// Stop cancels the running job and waits for it to finish.
func (j *StatsJob) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("stats job stopped")
}

func (j *StatsJob) RefreshUsers(ctx context.Context) {
	j.metrics.CronJob(jobRegisteredUsers, func() {
		ctx, cancel := context.WithTimeout(ctx, timeoutDuration)
		defer cancel()

		n, err := j.users.Count(ctx)
		if err != nil {
			j.logger.Error().Err(err).Msg("failed to count users")
			return
		}
		j.metrics.SetRegisteredUsers(n)
		j.logger.Debug().Int("users", n).Msg("registered users refreshed")
	})
}
