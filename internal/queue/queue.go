// Package queue provides Redis-backed run execution using Asynq, for
// deployments where runs must survive a backend restart. The in-process
// taskrunner covers the single-binary case.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"commentary-ai/config"
	"commentary-ai/internal/pipeline"
	"commentary-ai/internal/storage"
	"commentary-ai/internal/types"
	"commentary-ai/log"
)

const TypeCommentaryRun = "commentary:run"

// RunPayload identifies a persisted run to execute.
type RunPayload struct {
	RunID string `json:"run_id"`
}

// Queue enqueues runs and processes them on an Asynq server.
type Queue struct {
	client  *asynq.Client
	server  *asynq.Server
	service *pipeline.Service
}

func NewQueue(svc *pipeline.Service, cfg config.QueueConfig) *Queue {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: workers,
		RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
			return time.Duration(10<<uint(n)) * time.Second
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.GetLogger().Error("queued run failed",
				zap.String("type", task.Type()),
				zap.ByteString("payload", task.Payload()),
				zap.Error(err))
		}),
	})

	return &Queue{
		client:  asynq.NewClient(redisOpt),
		server:  server,
		service: svc,
	}
}

// Submit enqueues a started run. Implements handler.RunScheduler.
func (q *Queue) Submit(run *types.PipelineRun) error {
	data, err := json.Marshal(RunPayload{RunID: run.RunId})
	if err != nil {
		return fmt.Errorf("marshal run payload: %w", err)
	}

	task := asynq.NewTask(TypeCommentaryRun, data,
		asynq.MaxRetry(0), // the pipeline retries provider calls itself
		asynq.Timeout(60*time.Minute),
	)
	info, err := q.client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue run: %w", err)
	}

	log.GetLogger().Info("run enqueued",
		zap.String("run_id", run.RunId),
		zap.String("queue_id", info.ID))
	return nil
}

// Start runs the Asynq worker loop in the background.
func (q *Queue) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCommentaryRun, q.handleRun)
	return q.server.Start(mux)
}

func (q *Queue) handleRun(ctx context.Context, task *asynq.Task) error {
	var payload RunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal run payload: %w", err)
	}

	run, err := storage.GetRun(payload.RunID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", payload.RunID, err)
	}

	q.service.Execute(run)
	return nil
}

// Close stops the worker loop and the client connection.
func (q *Queue) Close() {
	q.server.Shutdown()
	q.client.Close()
}
