package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"commentary-ai/internal/types"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"github.com/stretchr/testify/assert"
)

type stubSampler struct {
	frames []types.Frame
	err    error
}

func (s *stubSampler) Sample(ctx context.Context, video types.SourceVideo, count int, strategy types.SampleStrategy, scratchDir string) ([]types.Frame, error) {
	return s.frames, s.err
}

type stubAnalyzer struct {
	summary types.ContentSummary
	err     error
	onCall  func()
}

func (s *stubAnalyzer) Analyze(ctx context.Context, frames []types.Frame) (types.ContentSummary, error) {
	if s.onCall != nil {
		s.onCall()
	}
	return s.summary, s.err
}

type stubScripter struct {
	script types.Script
	err    error
}

func (s *stubScripter) Generate(ctx context.Context, summary types.ContentSummary, targetTotalDuration float64) (types.Script, error) {
	return s.script, s.err
}

type stubSynthesizer struct {
	audio []types.AudioSegment
	err   error
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, script types.Script, scratchDir string) ([]types.AudioSegment, error) {
	return s.audio, s.err
}

type stubCompositor struct {
	err error
}

func (s *stubCompositor) Compose(ctx context.Context, video types.SourceVideo, segments []types.AudioSegment, overlay types.OverlayAsset, outputPath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return outputPath, nil
}

type stubOverlays struct{}

func (stubOverlays) Lookup(category types.Category) (types.OverlayAsset, error) {
	return types.OverlayAsset{Category: category, LogoPath: string(category) + "_logo.png"}, nil
}

type stubPublisher struct {
	url string
	err error
}

func (s *stubPublisher) Publish(ctx context.Context, videoPath, title, description string) (string, error) {
	return s.url, s.err
}

type runRecorder struct {
	stages []types.Stage
}

func (r *runRecorder) save(run *types.PipelineRun) error {
	r.stages = append(r.stages, run.Stage)
	return nil
}

func happyOrchestrator(t *testing.T, rec *runRecorder) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(OrchestratorParams{
		Sampler:  &stubSampler{frames: []types.Frame{{Index: 0, Path: "f0.jpg"}}},
		Analyzer: &stubAnalyzer{summary: types.ContentSummary{Category: types.CategoryNature}},
		Scripter: &stubScripter{script: types.Script{
			Segments:      []types.ScriptSegment{{Index: 0, Text: "a", TargetDuration: 15}, {Index: 1, Text: "b", TargetDuration: 15}},
			TotalDuration: 30,
		}},
		Synthesizer: &stubSynthesizer{audio: []types.AudioSegment{
			{Index: 0, FilePath: "0.mp3", ActualDuration: 15},
			{Index: 1, FilePath: "1.mp3", ActualDuration: 15},
		}},
		Compositor:  &stubCompositor{},
		Overlays:    stubOverlays{},
		Hub:         NewEventHub(),
		SaveRun:     rec.save,
		ScratchRoot: t.TempDir(),
		OutputRoot:  t.TempDir(),
	})
	o.probeMedia = func(path string) (util.MediaInfo, error) {
		return util.MediaInfo{Duration: 30, FrameRate: 25, Width: 1920, Height: 1080}, nil
	}
	return o
}

func TestExecuteHappyPath(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)

	run := &types.PipelineRun{RunId: "run-1", VideoPath: "in.mp4"}
	err := o.Execute(context.Background(), run, types.RunOptions{FrameCount: 8})

	assert.NoError(t, err)
	assert.Equal(t, types.StageSucceeded, run.Stage)
	assert.Equal(t, string(types.CategoryNature), run.Category)
	assert.Equal(t, 2, run.SegmentCount)
	assert.Zero(t, run.FillerCount)
	assert.Empty(t, run.Warning)
	assert.Equal(t, filepath.Join(o.outputRoot, "run-1.mp4"), run.OutputPath)

	assert.Equal(t, []types.Stage{
		types.StageSampling,
		types.StageAnalyzing,
		types.StageScripting,
		types.StageSynthesizing,
		types.StageComposing,
		types.StageSucceeded,
	}, rec.stages)
}

func TestExecuteEmitsProgressEvents(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	events, cancel := o.hub.Subscribe("run-1")
	defer cancel()

	run := &types.PipelineRun{RunId: "run-1", VideoPath: "in.mp4"}
	assert.NoError(t, o.Execute(context.Background(), run, types.RunOptions{}))

	var percents []int
	for ev := range events {
		percents = append(percents, ev.Percent)
	}
	// Monotonic progress, hub closed after the run.
	assert.Equal(t, []int{10, 30, 50, 70, 90, 100}, percents)
}

func TestExecuteUnreadableVideoFails(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	o.probeMedia = func(path string) (util.MediaInfo, error) {
		return util.MediaInfo{}, errors.New(errors.CodeUnknown, "moov atom not found")
	}

	run := &types.PipelineRun{RunId: "run-2", VideoPath: "broken.mp4"}
	err := o.Execute(context.Background(), run, types.RunOptions{})

	assert.True(t, errors.Is(err, errors.CodeUnreadableVideo))
	assert.Equal(t, types.StageFailed, run.Stage)
	assert.Equal(t, errors.CodeUnreadableVideo, run.FailCode)
	assert.NotEmpty(t, run.FailReason)
}

func TestExecuteEmptyVideoFails(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	o.probeMedia = func(path string) (util.MediaInfo, error) {
		return util.MediaInfo{Duration: 0}, nil
	}

	run := &types.PipelineRun{RunId: "run-3", VideoPath: "empty.mp4"}
	err := o.Execute(context.Background(), run, types.RunOptions{})

	assert.True(t, errors.Is(err, errors.CodeEmptyVideo))
	assert.Equal(t, types.StageFailed, run.Stage)
}

func TestExecuteAnalysisUnavailableFailsAtAnalyzing(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	o.analyzer = &stubAnalyzer{err: errors.Wrap(errors.CodeAnalysisUnavailable, "no frame analyzed", errors.ErrProviderTransient)}

	run := &types.PipelineRun{RunId: "run-4", VideoPath: "in.mp4"}
	err := o.Execute(context.Background(), run, types.RunOptions{})

	assert.True(t, errors.Is(err, errors.CodeAnalysisUnavailable))
	assert.Equal(t, types.StageFailed, run.Stage)
	assert.Equal(t, errors.CodeAnalysisUnavailable, run.FailCode)
	// Failed from Analyzing, so Composing was never reached.
	assert.NotContains(t, rec.stages, types.StageComposing)
}

func TestExecuteFillerSegmentsSucceedWithWarning(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	o.synthesizer = &stubSynthesizer{audio: []types.AudioSegment{
		{Index: 0, FilePath: "0.mp3", ActualDuration: 15},
		{Index: 1, FilePath: "1.mp3", ActualDuration: 15, Filler: true},
	}}

	run := &types.PipelineRun{RunId: "run-5", VideoPath: "in.mp4"}
	err := o.Execute(context.Background(), run, types.RunOptions{})

	assert.NoError(t, err)
	assert.Equal(t, types.StageSucceeded, run.Stage)
	assert.Equal(t, 1, run.FillerCount)
	assert.Contains(t, run.Warning, "filler")
}

func TestExecuteCancellationEndsInCancelled(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	ctx, cancel := context.WithCancel(context.Background())
	o.analyzer = &stubAnalyzer{
		summary: types.ContentSummary{Category: types.CategoryNature},
		onCall:  cancel,
	}

	run := &types.PipelineRun{RunId: "run-6", VideoPath: "in.mp4"}
	err := o.Execute(ctx, run, types.RunOptions{})

	assert.True(t, errors.Is(err, errors.CodeCancelled), "error = %v", err)
	assert.Equal(t, types.StageCancelled, run.Stage)
	assert.Zero(t, run.FailCode)
	assert.NotContains(t, rec.stages, types.StageScripting)
}

func TestExecuteRemovesScratchDir(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	scratch := filepath.Join(o.scratchRoot, "run-7")
	o.sampler = &stubSampler{err: func() error {
		// Simulate the sampler having written partial frames first.
		os.MkdirAll(filepath.Join(scratch, "frames"), 0o755)
		return errors.ErrUnreadableVideo
	}()}

	run := &types.PipelineRun{RunId: "run-7", VideoPath: "in.mp4"}
	_ = o.Execute(context.Background(), run, types.RunOptions{})

	_, statErr := os.Stat(scratch)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecutePublishFailureIsNonFatal(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	o.publisher = &stubPublisher{err: errors.New(errors.CodeProviderUnavailable, "upload rejected")}

	run := &types.PipelineRun{RunId: "run-8", VideoPath: "in.mp4", VideoTitle: "clip"}
	err := o.Execute(context.Background(), run, types.RunOptions{Publish: true})

	assert.NoError(t, err)
	assert.Equal(t, types.StageSucceeded, run.Stage)
	assert.Empty(t, run.PublishedUrl)
	assert.Contains(t, run.Warning, "publish failed")
}

func TestExecutePublishRecordsUrl(t *testing.T) {
	rec := &runRecorder{}
	o := happyOrchestrator(t, rec)
	o.publisher = &stubPublisher{url: "https://www.youtube.com/watch?v=abc123"}

	run := &types.PipelineRun{RunId: "run-9", VideoPath: "in.mp4", VideoTitle: "clip"}
	err := o.Execute(context.Background(), run, types.RunOptions{Publish: true})

	assert.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", run.PublishedUrl)
}
