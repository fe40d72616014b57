package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/artwall/storefront/pkg/logger"
)

// flushTimeout bounds one run of the flush job.
const flushTimeout = 30 * time.Second

// Flusher retries favorites writes that failed earlier.
type Flusher interface {
	FlushDirty(ctx context.Context) (int, error)
}

// CronManager runs the scheduled background jobs.
type CronManager struct {
	cron     *cron.Cron
	flusher  Flusher
	schedule string
	log      logger.Logger
}

// NewCronManager creates a manager that flushes dirty favorites on schedule,
// a standard five-field cron spec or a descriptor such as "@every 1m".
func NewCronManager(flusher Flusher, schedule string, log logger.Logger) *CronManager {
	return &CronManager{
		cron:     cron.New(cron.WithLocation(time.Local)),
		flusher:  flusher,
		schedule: schedule,
		log:      log.WithFields(logger.String("component", "cron")),
	}
}

// Start registers the jobs and starts the scheduler.
func (m *CronManager) Start() error {
	_, err := m.cron.AddFunc(m.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		m.runFlush(ctx)
	})
	if err != nil {
		return err
	}

	m.cron.Start()
	m.log.Info("cron manager started", logger.String("flush_schedule", m.schedule))
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (m *CronManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron manager stopped")
}

// RunFlushNow runs the flush job immediately, for shutdown or tests.
func (m *CronManager) RunFlushNow(ctx context.Context) error {
	_, err := m.runFlush(ctx)
	return err
}

func (m *CronManager) runFlush(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := m.flusher.FlushDirty(ctx)
	if err != nil {
		m.log.Warn("favorites flush incomplete",
			logger.Int("flushed", n), logger.Duration("elapsed", time.Since(start)), logger.Error(err))
		return n, err
	}
	if n > 0 {
		m.log.Info("favorites flushed",
			logger.Int("flushed", n), logger.Duration("elapsed", time.Since(start)))
	}
	return n, nil
}
