package pipeline

import (
	"testing"
	"time"

	"commentary-ai/config"
	"commentary-ai/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceTestConfig(t *testing.T) {
	saved := config.Conf
	t.Cleanup(func() { config.Conf = saved })

	config.Conf = config.Config{}
	config.Conf.Vision.Provider = "openai"
	config.Conf.Pipeline.FrameCount = 8
	config.Conf.Pipeline.SampleStrategy = "uniform"
	config.Conf.Pipeline.MaxConcurrency = 4
	config.Conf.Pipeline.PerCallTimeout = 60
	config.Conf.Pipeline.MaxRetries = 3
	config.Conf.Pipeline.DurationTolerancePct = 15
}

func TestBuildOrchestratorAppliesPerRunLimits(t *testing.T) {
	serviceTestConfig(t)

	svc, err := NewService()
	require.NoError(t, err)

	o := svc.buildOrchestrator(types.RunOptions{MaxConcurrency: 7, PerCallTimeout: 9})

	analyzer, ok := o.analyzer.(*Analyzer)
	require.True(t, ok, "analyzer = %T", o.analyzer)
	assert.Equal(t, 7, analyzer.concurrency)
	assert.Equal(t, 9*time.Second, analyzer.perCallTimeout)

	scripter, ok := o.scripter.(*Scripter)
	require.True(t, ok, "scripter = %T", o.scripter)
	assert.Equal(t, 9*time.Second, scripter.perCallTimeout)

	synthesizer, ok := o.synthesizer.(*Synthesizer)
	require.True(t, ok, "synthesizer = %T", o.synthesizer)
	assert.Equal(t, 7, synthesizer.concurrency)
	assert.Equal(t, 9*time.Second, synthesizer.perCallTimeout)
}

func TestFillRunOptionsAppliesDefaults(t *testing.T) {
	serviceTestConfig(t)

	opts := fillRunOptions(types.RunOptions{}, "clip")
	assert.Equal(t, 8, opts.FrameCount)
	assert.Equal(t, types.SampleStrategy("uniform"), opts.SampleStrategy)
	assert.Equal(t, 4, opts.MaxConcurrency)
	assert.Equal(t, 60, opts.PerCallTimeout)
	assert.Equal(t, "clip", opts.VideoTitle)

	// Caller-provided values win over the configured defaults.
	opts = fillRunOptions(types.RunOptions{MaxConcurrency: 2, PerCallTimeout: 5}, "clip")
	assert.Equal(t, 2, opts.MaxConcurrency)
	assert.Equal(t, 5, opts.PerCallTimeout)
}
