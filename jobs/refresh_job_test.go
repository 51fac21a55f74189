package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gmpdesk/gmp-dashboard/models"
	"github.com/gmpdesk/gmp-dashboard/services"
)

type countingSource struct {
	calls int64
}

func (c *countingSource) FetchRecords(ctx context.Context) ([]models.GMPRecord, error) {
	atomic.AddInt64(&c.calls, 1)
	return []models.GMPRecord{{Name: "Tata Technologies", GMP: "410"}}, nil
}

func (c *countingSource) callCount() int64 {
	return atomic.LoadInt64(&c.calls)
}

func TestRefreshJobRunsImmediatelyAndOnTicks(t *testing.T) {
	source := &countingSource{}
	// Zero window: every cycle goes upstream instead of riding the cache.
	controller := services.NewSnapshotService(source, nil, 0)

	job := NewRefreshJob(controller, 20*time.Millisecond, time.Second)
	job.Start()
	time.Sleep(90 * time.Millisecond)
	job.Stop()

	if got := source.callCount(); got < 2 {
		t.Errorf("fetch count = %d, want the startup run plus at least one tick", got)
	}
	if controller.Current() == nil {
		t.Error("controller has no entry after the job ran")
	}
}

func TestRefreshJobRespectsValidityWindow(t *testing.T) {
	source := &countingSource{}
	controller := services.NewSnapshotService(source, nil, time.Hour)

	job := NewRefreshJob(controller, 15*time.Millisecond, time.Second)
	job.Start()
	time.Sleep(80 * time.Millisecond)
	job.Stop()

	// Ticks inside the window republish the cached entry; only the
	// startup cycle should have fetched.
	if got := source.callCount(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestRefreshJobStopHaltsTicks(t *testing.T) {
	source := &countingSource{}
	controller := services.NewSnapshotService(source, nil, 0)

	job := NewRefreshJob(controller, 10*time.Millisecond, time.Second)
	job.Start()
	time.Sleep(35 * time.Millisecond)
	job.Stop()

	settled := source.callCount()
	time.Sleep(50 * time.Millisecond)
	if got := source.callCount(); got != settled {
		t.Errorf("fetch count moved from %d to %d after stop", settled, got)
	}
}

func TestRefreshJobStopIsIdempotent(t *testing.T) {
	controller := services.NewSnapshotService(&countingSource{}, nil, time.Hour)

	job := NewRefreshJob(controller, time.Minute, time.Second)
	job.Start()
	job.Stop()
	job.Stop()
}

func TestRefreshJobStopWithoutStart(t *testing.T) {
	controller := services.NewSnapshotService(&countingSource{}, nil, time.Hour)

	job := NewRefreshJob(controller, time.Minute, time.Second)
	job.Stop()
}
