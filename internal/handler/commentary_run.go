package handler

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"commentary-ai/internal/dto"
	"commentary-ai/internal/response"
	"commentary-ai/internal/storage"
	"commentary-ai/internal/types"
	"commentary-ai/log"
	apperrors "commentary-ai/pkg/errors"
)

func (h *Handler) StartRun(c *gin.Context) {
	var req dto.StartRunReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("StartRun ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}
	log.GetLogger().Info("StartRun received request", zap.Any("req", req))

	run, err := h.Service.StartRun(req.VideoPath, req.Title, types.RunOptions{
		FrameCount:         req.FrameCount,
		SampleStrategy:     types.SampleStrategy(req.SampleStrategy),
		TargetDurationHint: req.TargetDuration,
		MaxConcurrency:     req.MaxConcurrency,
		PerCallTimeout:     req.PerCallTimeout,
		Publish:            req.Publish,
	})
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	if err = h.Runner.Submit(run); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeUnknown, "Run could not be scheduled", err))
		return
	}
	response.Success(c, dto.StartRunResData{RunId: run.RunId})
}

func (h *Handler) GetRun(c *gin.Context) {
	var req dto.GetRunReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	run, err := storage.GetRun(req.RunId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, runToDto(run))
}

func (h *Handler) GetRunHistory(c *gin.Context) {
	runs, err := storage.GetRunHistory(200)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}

	items := make([]dto.GetRunResData, 0, len(runs))
	for i := range runs {
		items = append(items, runToDto(&runs[i]))
	}
	response.Success(c, items)
}

func (h *Handler) CancelRun(c *gin.Context) {
	runId := c.Param("runId")
	if runId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	if !h.Service.CancelRun(runId) {
		response.Error(c, apperrors.CodeNotFound, "Run is not active")
		return
	}
	response.Success(c, nil)
}

func (h *Handler) DeleteRun(c *gin.Context) {
	runId := c.Param("runId")
	if runId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	// Stop it first if still working, then drop the artifact and record.
	h.Service.CancelRun(runId)

	run, err := storage.GetRun(runId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	if run.OutputPath != "" {
		if err = os.Remove(run.OutputPath); err != nil && !os.IsNotExist(err) {
			log.GetLogger().Error("DeleteRun remove artifact err",
				zap.String("path", run.OutputPath), zap.Error(err))
		}
	}
	if err = storage.DeleteRun(runId); err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) DownloadArtifact(c *gin.Context) {
	runId := c.Param("runId")
	if runId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	run, err := storage.GetRun(runId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	if run.Stage != types.StageSucceeded || run.OutputPath == "" {
		response.Error(c, apperrors.CodeNotFound, "Run has no finished artifact")
		return
	}
	if _, err = os.Stat(run.OutputPath); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeFileNotFound, "Artifact file missing", err))
		return
	}
	c.FileAttachment(run.OutputPath, runId+".mp4")
}

func runToDto(run *types.PipelineRun) dto.GetRunResData {
	return dto.GetRunResData{
		RunId:        run.RunId,
		Stage:        run.Stage.String(),
		Percent:      run.Stage.Progress(),
		Category:     run.Category,
		OutputPath:   run.OutputPath,
		PublishedUrl: run.PublishedUrl,
		SegmentCount: run.SegmentCount,
		FillerCount:  run.FillerCount,
		FailCode:     run.FailCode,
		FailReason:   run.FailReason,
		Warning:      run.Warning,
	}
}
