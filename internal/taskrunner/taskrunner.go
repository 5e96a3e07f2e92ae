package taskrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"commentary-ai/internal/pipeline"
	"commentary-ai/internal/types"
	"commentary-ai/log"
)

const (
	defaultQueueSize   = 64
	defaultConcurrency = 2
)

var (
	ErrRunnerStopped = errors.New("task runner stopped")
	ErrQueueFull     = errors.New("task queue is full")
)

// Config controls the in-process run executor.
type Config struct {
	QueueSize   int
	Concurrency int
}

func DefaultConfig() Config {
	return Config{
		QueueSize:   defaultQueueSize,
		Concurrency: defaultConcurrency,
	}
}

// Runner executes queued commentary runs with in-memory workers. Runs
// submitted after Close are rejected.
type Runner struct {
	execute func(run *types.PipelineRun)
	config  Config

	queue  chan *types.PipelineRun
	ctx    context.Context
	cancel context.CancelFunc

	workerWg sync.WaitGroup
	closed   atomic.Bool
}

// New creates and starts a runner against the given service.
func New(svc *pipeline.Service, cfg Config) *Runner {
	cfg = normalizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	runner := &Runner{
		execute: svc.Execute,
		config:  cfg,
		queue:   make(chan *types.PipelineRun, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		runner.workerWg.Add(1)
		go runner.worker(i + 1)
	}
	return runner
}

func normalizeConfig(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg
}

// Submit queues a started run for execution.
func (r *Runner) Submit(run *types.PipelineRun) error {
	if r.closed.Load() {
		return ErrRunnerStopped
	}

	select {
	case <-r.ctx.Done():
		return ErrRunnerStopped
	case r.queue <- run:
		log.GetLogger().Info("[TaskRunner] run submitted", zap.String("run_id", run.RunId))
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) worker(workerID int) {
	defer r.workerWg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		select {
		case <-r.ctx.Done():
			return
		case run := <-r.queue:
			log.GetLogger().Info("[TaskRunner] run started",
				zap.Int("worker_id", workerID),
				zap.String("run_id", run.RunId))
			r.execute(run)
		}
	}
}

// Close stops workers and rejects new runs. In-flight runs finish first.
func (r *Runner) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.cancel()
	r.workerWg.Wait()
}

// Pending returns the number of queued runs waiting for workers.
func (r *Runner) Pending() int {
	return len(r.queue)
}
