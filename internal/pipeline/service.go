package pipeline

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"commentary-ai/config"
	"commentary-ai/internal/category"
	"commentary-ai/internal/overlay"
	"commentary-ai/internal/storage"
	"commentary-ai/internal/types"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/gemini"
	"commentary-ai/pkg/openai"
	"commentary-ai/pkg/tts"
	"commentary-ai/pkg/youtube"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Service assembles the pipeline from the loaded configuration and owns
// the lifecycle of active runs: starting, cancelling, and progress
// subscriptions.
type Service struct {
	// buildOrchestrator assembles the stage components for one run, so
	// per-run limits (concurrency, per-call timeout) take effect.
	buildOrchestrator func(opts types.RunOptions) *Orchestrator
	hub               *EventHub

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	pending map[string]types.RunOptions
}

// NewService builds the provider clients and stage components the config
// selects. Provider credentials are only validated at call time.
func NewService() (*Service, error) {
	conf := config.Conf

	openaiClient := openai.NewClient(conf.Openai.BaseUrl, conf.Openai.ApiKey, conf.App.Proxy)

	var vision types.VisionAnalyzer
	switch conf.Vision.Provider {
	case "gemini":
		client, err := gemini.NewClient(context.Background(), conf.Gemini.ApiKey, conf.Vision.Model)
		if err != nil {
			return nil, errors.Wrap(errors.CodeProviderUnavailable, "init gemini client", err)
		}
		vision = client
	default:
		vision = openaiClient
	}

	// The rate limiter is shared process-wide so concurrent runs respect
	// one provider quota together.
	var limiter *rate.Limiter
	if conf.Pipeline.ProviderRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(conf.Pipeline.ProviderRateLimit), 1)
	}

	ttsClient := tts.NewCompositeTtsClient()
	voice := conf.Tts.Openai.Voice
	if conf.Tts.Provider == "google" {
		voice = conf.Tts.Google.Voice
	}

	var publisher types.Publisher
	if conf.Publish.Enabled {
		publisher = youtube.NewPublisher(conf.Publish)
	}

	table := category.NewTable(conf.CategoryLabels)
	overlays := overlay.NewCatalog("assets")
	hub := NewEventHub()

	build := func(opts types.RunOptions) *Orchestrator {
		perCallTimeout := time.Duration(opts.PerCallTimeout) * time.Second
		return NewOrchestrator(OrchestratorParams{
			Sampler: NewSampler(conf.Pipeline.FrameCount),
			Analyzer: NewAnalyzer(vision, table,
				opts.MaxConcurrency, conf.Pipeline.MaxRetries, perCallTimeout, limiter, 0.2),
			Scripter: NewScripter(openaiClient, conf.Pipeline.MaxRetries,
				conf.Pipeline.DurationTolerancePct, perCallTimeout),
			Synthesizer: NewSynthesizer(ttsClient, voice, conf.Tts.Filler,
				opts.MaxConcurrency, conf.Pipeline.MaxRetries, perCallTimeout, limiter),
			Compositor:  NewCompositor(),
			Overlays:    overlays,
			Publisher:   publisher,
			Hub:         hub,
			SaveRun:     storage.SaveRun,
			ScratchRoot: conf.App.ScratchDir,
			OutputRoot:  conf.App.OutputDir,
		})
	}

	return &Service{
		buildOrchestrator: build,
		hub:               hub,
		cancels:           map[string]context.CancelFunc{},
		pending:           map[string]types.RunOptions{},
	}, nil
}

// StartRun validates the input and persists the new run record. Zero-valued
// option fields fall back to the configured defaults. The caller schedules
// Execute separately.
func (s *Service) StartRun(videoPath, title string, opts types.RunOptions) (*types.PipelineRun, error) {
	if strings.TrimSpace(videoPath) == "" {
		return nil, errors.ErrInvalidParams
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, errors.Wrap(errors.CodeVideoNotFound, "source video not found", err)
	}

	run := &types.PipelineRun{
		RunId:      uuid.NewString(),
		VideoPath:  videoPath,
		VideoTitle: title,
		Stage:      types.StageSampling,
	}
	if err := storage.SaveRun(run); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending[run.RunId] = fillRunOptions(opts, title)
	s.mu.Unlock()
	return run, nil
}

// fillRunOptions completes caller-provided options with configured defaults.
func fillRunOptions(opts types.RunOptions, title string) types.RunOptions {
	conf := config.Conf
	if opts.FrameCount <= 0 {
		opts.FrameCount = conf.Pipeline.FrameCount
	}
	if opts.SampleStrategy == "" {
		opts.SampleStrategy = types.SampleStrategy(conf.Pipeline.SampleStrategy)
	}
	if opts.TargetDurationHint <= 0 {
		opts.TargetDurationHint = float64(conf.Pipeline.NarrationTarget)
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = conf.Pipeline.MaxConcurrency
	}
	if opts.PerCallTimeout <= 0 {
		opts.PerCallTimeout = conf.Pipeline.PerCallTimeout
	}
	opts.Publish = opts.Publish || conf.Publish.Enabled
	opts.VideoTitle = title
	return opts
}

// Execute drives a started run to a terminal stage. It blocks until the
// run finishes, so callers hand it to a worker.
func (s *Service) Execute(run *types.PipelineRun) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[run.RunId] = cancel
	opts, ok := s.pending[run.RunId]
	delete(s.pending, run.RunId)
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.cancels, run.RunId)
		s.mu.Unlock()
	}()

	if !ok {
		// Run came back through the durable queue after a restart.
		opts = fillRunOptions(types.RunOptions{}, run.VideoTitle)
	}

	if err := s.buildOrchestrator(opts).Execute(ctx, run, opts); err != nil {
		log.GetLogger().Warn("run finished with error",
			zap.String("run_id", run.RunId),
			zap.Int("code", errors.GetCode(err)),
			zap.Error(err))
		return
	}
	log.GetLogger().Info("run finished",
		zap.String("run_id", run.RunId),
		zap.String("output", run.OutputPath))
}

// CancelRun requests cooperative cancellation of an active run. It reports
// whether the run was still active.
func (s *Service) CancelRun(runId string) bool {
	s.mu.Lock()
	cancel, ok := s.cancels[runId]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Subscribe attaches a progress listener to a run.
func (s *Service) Subscribe(runId string) (<-chan types.ProgressEvent, func()) {
	return s.hub.Subscribe(runId)
}
