package handler

import (
	"commentary-ai/internal/pipeline"
	"commentary-ai/internal/types"
)

// RunScheduler hands a started run to whichever execution backend is
// configured, the in-process runner or the Redis queue.
type RunScheduler interface {
	Submit(run *types.PipelineRun) error
}

type Handler struct {
	Service *pipeline.Service
	Runner  RunScheduler
}

func NewHandler(svc *pipeline.Service, runner RunScheduler) *Handler {
	return &Handler{
		Service: svc,
		Runner:  runner,
	}
}
