package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"deal_diligence/pkg/core/logger"
)

// Runner executes one deal's analysis to completion.
type Runner interface {
	RunAnalysis(ctx context.Context, dealID int64)
}

// Dispatcher runs one background job per triggered deal. Deals run
// concurrently; a deal that already has a job in flight is not started twice.
type Dispatcher struct {
	runner Runner
	ctx    context.Context

	mu     sync.Mutex
	active map[int64]string
	wg     sync.WaitGroup
}

// NewDispatcher binds jobs to ctx, not to the request that triggered them.
func NewDispatcher(ctx context.Context, runner Runner) *Dispatcher {
	return &Dispatcher{
		runner: runner,
		ctx:    ctx,
		active: make(map[int64]string),
	}
}

// Dispatch starts a job for dealID and returns its id. When a job for the
// deal is already running, its id is returned with started=false.
func (d *Dispatcher) Dispatch(dealID int64) (jobID string, started bool) {
	d.mu.Lock()
	if id, ok := d.active[dealID]; ok {
		d.mu.Unlock()
		return id, false
	}
	jobID = uuid.NewString()
	d.active[dealID] = jobID
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer d.finish(dealID)
		defer func() {
			if r := recover(); r != nil {
				logger.Deal(dealID).WithField("job_id", jobID).Errorf("analysis job panicked: %v", r)
			}
		}()

		logger.Deal(dealID).WithField("job_id", jobID).Info("analysis job started")
		d.runner.RunAnalysis(d.ctx, dealID)
	}()
	return jobID, true
}

// Running reports whether dealID has a job in flight.
func (d *Dispatcher) Running(dealID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.active[dealID]
	return ok
}

// Wait blocks until every dispatched job has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) finish(dealID int64) {
	d.mu.Lock()
	delete(d.active, dealID)
	d.mu.Unlock()
}
