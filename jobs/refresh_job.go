package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/gmpdesk/gmp-dashboard/services"
	"github.com/sirupsen/logrus"
)

// RefreshJob keeps the GMP snapshot warm by running a non-forced
// refresh on a fixed interval. Each cycle either rides the validity
// window or triggers one upstream fetch.
type RefreshJob struct {
	controller *services.SnapshotService
	interval   time.Duration
	timeout    time.Duration
	logger     *logrus.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	started  bool
}

func NewRefreshJob(controller *services.SnapshotService, interval, timeout time.Duration) *RefreshJob {
	return &RefreshJob{
		controller: controller,
		interval:   interval,
		timeout:    timeout,
		logger:     logrus.StandardLogger(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the ticker goroutine and runs one refresh immediately
// so the dashboard has data before the first interval elapses.
func (j *RefreshJob) Start() {
	if j.started {
		return
	}
	j.started = true

	j.logger.WithFields(logrus.Fields{
		"component": "refresh_job",
		"interval":  j.interval,
	}).Info("Starting GMP refresh job")

	go func() {
		defer close(j.done)

		j.Run()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-j.stop:
				return
			case <-ticker.C:
				j.Run()
			}
		}
	}()
}

// Run executes a single non-forced refresh cycle.
func (j *RefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.controller.Refresh(ctx, false); err != nil {
		j.logger.WithError(err).Warn("Scheduled GMP refresh failed")
	}
}

// Stop halts the ticker goroutine and waits for an in-progress cycle to
// finish. Safe to call more than once.
func (j *RefreshJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.stop)
	})
	if j.started {
		<-j.done
	}
	j.logger.Info("GMP refresh job stopped")
}
