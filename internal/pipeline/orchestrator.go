package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"commentary-ai/internal/types"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"go.uber.org/zap"
)

// OverlayCatalog resolves the per-category overlay kit.
type OverlayCatalog interface {
	Lookup(category types.Category) (types.OverlayAsset, error)
}

// Orchestrator drives one run through the stage state machine. It is the
// sole mutator of the PipelineRun; stage components only receive and
// return values.
type Orchestrator struct {
	sampler     types.FrameSampler
	analyzer    types.ContentAnalyzer
	scripter    types.ScriptGenerator
	synthesizer types.SpeechSynthesizer
	compositor  types.Compositor
	overlays    OverlayCatalog
	publisher   types.Publisher // optional

	hub     *EventHub
	saveRun func(*types.PipelineRun) error

	// swappable for tests
	probeMedia func(path string) (util.MediaInfo, error)

	scratchRoot string
	outputRoot  string
}

type OrchestratorParams struct {
	Sampler     types.FrameSampler
	Analyzer    types.ContentAnalyzer
	Scripter    types.ScriptGenerator
	Synthesizer types.SpeechSynthesizer
	Compositor  types.Compositor
	Overlays    OverlayCatalog
	Publisher   types.Publisher
	Hub         *EventHub
	SaveRun     func(*types.PipelineRun) error
	ScratchRoot string
	OutputRoot  string
}

func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	return &Orchestrator{
		sampler:     p.Sampler,
		analyzer:    p.Analyzer,
		scripter:    p.Scripter,
		synthesizer: p.Synthesizer,
		compositor:  p.Compositor,
		overlays:    p.Overlays,
		publisher:   p.Publisher,
		hub:         p.Hub,
		saveRun:     p.SaveRun,
		probeMedia:  util.ProbeMedia,
		scratchRoot: p.ScratchRoot,
		outputRoot:  p.OutputRoot,
	}
}

// Execute runs the whole pipeline for one run. The run's scratch directory
// is reclaimed on every exit path, success and failure alike.
func (o *Orchestrator) Execute(ctx context.Context, run *types.PipelineRun, opts types.RunOptions) error {
	scratchDir := filepath.Join(o.scratchRoot, run.RunId)
	defer os.RemoveAll(scratchDir)
	defer o.hub.CloseRun(run.RunId)

	run.Stage = types.StageSampling
	o.persist(run)
	o.publish(run, "")

	// ---- Sampling
	info, err := o.probeMedia(run.VideoPath)
	if err != nil {
		return o.fail(ctx, run, errors.Wrap(errors.CodeUnreadableVideo, "source video cannot be decoded", err))
	}
	if info.Duration <= 0 {
		return o.fail(ctx, run, errors.ErrEmptyVideo)
	}
	video := types.SourceVideo{
		Path:      run.VideoPath,
		Duration:  info.Duration,
		FrameRate: info.FrameRate,
		Width:     info.Width,
		Height:    info.Height,
	}

	frames, err := o.sampler.Sample(ctx, video, opts.FrameCount, opts.SampleStrategy, filepath.Join(scratchDir, "frames"))
	if err != nil {
		return o.fail(ctx, run, err)
	}

	// ---- Analyzing
	if err = o.advance(ctx, run, types.StageAnalyzing, ""); err != nil {
		return err
	}
	summary, err := o.analyzer.Analyze(ctx, frames)
	if err != nil {
		return o.fail(ctx, run, err)
	}
	run.Category = string(summary.Category)

	// ---- Scripting
	if err = o.advance(ctx, run, types.StageScripting, "category: "+run.Category); err != nil {
		return err
	}
	targetDuration := opts.TargetDurationHint
	if targetDuration <= 0 {
		targetDuration = video.Duration
	}
	script, err := o.scripter.Generate(ctx, summary, targetDuration)
	if err != nil {
		return o.fail(ctx, run, err)
	}
	run.SegmentCount = len(script.Segments)

	// ---- Synthesizing
	if err = o.advance(ctx, run, types.StageSynthesizing, ""); err != nil {
		return err
	}
	audio, err := o.synthesizer.Synthesize(ctx, script, filepath.Join(scratchDir, "audio"))
	if err != nil {
		return o.fail(ctx, run, err)
	}
	for _, seg := range audio {
		if seg.Filler {
			run.FillerCount++
		}
	}
	if run.FillerCount > 0 {
		o.addWarning(run, fmt.Sprintf("%d segment(s) replaced by filler audio", run.FillerCount))
	}

	// ---- Composing
	if err = o.advance(ctx, run, types.StageComposing, ""); err != nil {
		return err
	}
	asset, err := o.overlays.Lookup(summary.Category)
	if err != nil {
		return o.fail(ctx, run, errors.Wrap(errors.CodeCompositionFailed, "resolve overlay assets", err))
	}
	outputPath := filepath.Join(o.outputRoot, run.RunId+".mp4")
	delivered, err := o.compositor.Compose(ctx, video, audio, asset, outputPath)
	if err != nil {
		return o.fail(ctx, run, err)
	}
	run.OutputPath = delivered

	// ---- Succeeded
	if err = o.advance(ctx, run, types.StageSucceeded, delivered); err != nil {
		return err
	}

	// Publishing is best effort and never fails a succeeded run.
	if opts.Publish && o.publisher != nil {
		o.publishArtifact(ctx, run)
	}
	return nil
}

// advance moves the run to the next working stage, checking cancellation
// at the stage boundary.
func (o *Orchestrator) advance(ctx context.Context, run *types.PipelineRun, to types.Stage, message string) error {
	if ctx.Err() != nil {
		return o.fail(ctx, run, errors.Wrap(errors.CodeCancelled, "run cancelled", ctx.Err()))
	}
	if !types.CanTransition(run.Stage, to) {
		// The transition table makes this unreachable from pipeline code.
		return o.fail(ctx, run, errors.New(errors.CodeUnknown,
			fmt.Sprintf("illegal stage transition %s -> %s", run.Stage, to)))
	}
	run.Stage = to
	o.persist(run)
	o.publish(run, message)
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, run *types.PipelineRun, cause error) error {
	target := types.StageFailed
	if errors.Is(cause, errors.CodeCancelled) || ctx.Err() != nil {
		target = types.StageCancelled
	}

	if types.CanTransition(run.Stage, target) {
		run.Stage = target
	} else {
		run.Stage = types.StageFailed
	}
	if run.Stage == types.StageFailed {
		run.FailCode = errors.GetCode(cause)
		run.FailReason = cause.Error()
	}
	o.persist(run)
	o.publish(run, errors.GetMessage(cause))

	log.GetLogger().Error("run ended",
		zap.String("run_id", run.RunId),
		zap.String("stage", run.Stage.String()),
		zap.Error(cause))
	return cause
}

func (o *Orchestrator) publishArtifact(ctx context.Context, run *types.PipelineRun) {
	title := run.VideoTitle
	if title == "" {
		title = "AI commentary " + run.RunId
	}
	description := fmt.Sprintf("Auto-generated %s commentary.", run.Category)

	url, err := o.publisher.Publish(ctx, run.OutputPath, title, description)
	if err != nil {
		log.GetLogger().Warn("publish failed", zap.String("run_id", run.RunId), zap.Error(err))
		o.addWarning(run, "publish failed: "+errors.GetMessage(err))
		o.persist(run)
		return
	}
	run.PublishedUrl = url
	o.persist(run)
}

func (o *Orchestrator) addWarning(run *types.PipelineRun, note string) {
	if run.Warning != "" {
		run.Warning += "; "
	}
	run.Warning += note
}

func (o *Orchestrator) persist(run *types.PipelineRun) {
	if o.saveRun == nil {
		return
	}
	if err := o.saveRun(run); err != nil {
		log.GetLogger().Error("persist run failed", zap.String("run_id", run.RunId), zap.Error(err))
	}
}

func (o *Orchestrator) publish(run *types.PipelineRun, message string) {
	if o.hub == nil {
		return
	}
	o.hub.Publish(types.ProgressEvent{
		RunId:    run.RunId,
		Stage:    run.Stage,
		StageStr: run.Stage.String(),
		Percent:  run.Stage.Progress(),
		Message:  message,
	})
}
