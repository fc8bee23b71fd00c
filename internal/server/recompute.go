package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/pipeline"
)

// Recomputer refreshes the results of a fixed set of spaces on a cron
// schedule, so that API reads hit a warm cache and every run lands in the
// runner's store.
type Recomputer struct {
	runner      *pipeline.Runner
	spaces      []string
	concurrency int
	logger      *log.Logger

	cron *cron.Cron
	ctx  context.Context // scheduled runs; set by Start
	mu   sync.Mutex      // serializes runs
}

// NewRecomputer validates spec, a standard five-field cron expression or a
// descriptor such as "@every 10m".
func NewRecomputer(runner *pipeline.Runner, spec string, spaces []string, concurrency int, logger *log.Logger) (*Recomputer, error) {
	if logger == nil {
		logger = log.Default()
	}
	rc := &Recomputer{
		runner:      runner,
		spaces:      spaces,
		concurrency: concurrency,
		logger:      logger,
		cron:        cron.New(),
		ctx:         context.Background(),
	}
	if _, err := rc.cron.AddFunc(spec, rc.tick); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid recompute schedule %q", spec)
	}
	return rc, nil
}

func (rc *Recomputer) tick() {
	if rc.ctx.Err() != nil {
		return
	}
	if err := rc.RunOnce(rc.ctx); err != nil {
		rc.logger.Error("recompute failed", "err", err)
	}
}

// RunOnce recomputes every space, bypassing the result cache. A run that
// starts while another is in progress waits for it.
func (rc *Recomputer) RunOnce(ctx context.Context) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	start := time.Now()
	results, err := rc.runner.ExecuteAll(ctx, rc.spaces, pipeline.Options{Refresh: true}, rc.concurrency)
	if err != nil {
		return err
	}
	rc.logger.Info("recomputed spaces", "spaces", len(results), "duration", time.Since(start))
	return nil
}

// Start runs the schedule in the background until ctx is cancelled.
// Scheduled runs inherit ctx, so cancelling it also aborts a run in progress.
func (rc *Recomputer) Start(ctx context.Context) {
	rc.ctx = ctx
	rc.cron.Start()
	go func() {
		<-ctx.Done()
		<-rc.cron.Stop().Done()
	}()
}
