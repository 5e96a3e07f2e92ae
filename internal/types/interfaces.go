package types

import "context"

// VisionAnalyzer is the vision capability: one image in, labels and objects
// out. Implementations map provider failures onto the error codes in
// pkg/errors so the retry policy can tell rate limits from transient faults.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, imagePath string) (FrameAnalysis, error)
}

// ChatCompleter is the language-generation capability.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Ttser renders text to an audio file and reports the rendered duration in
// seconds.
type Ttser interface {
	Text2Speech(ctx context.Context, text, voice, outputFilePath string) (float64, error)
}

// The five stage components. The orchestrator sequences these; they receive
// and return values and never touch run state.

type FrameSampler interface {
	Sample(ctx context.Context, video SourceVideo, count int, strategy SampleStrategy, scratchDir string) ([]Frame, error)
}

type ContentAnalyzer interface {
	Analyze(ctx context.Context, frames []Frame) (ContentSummary, error)
}

type ScriptGenerator interface {
	Generate(ctx context.Context, summary ContentSummary, targetTotalDuration float64) (Script, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script Script, scratchDir string) ([]AudioSegment, error)
}

type Compositor interface {
	Compose(ctx context.Context, video SourceVideo, segments []AudioSegment, overlay OverlayAsset, outputPath string) (string, error)
}

// Publisher uploads a finished artifact. Publish failures never fail the
// run; they are surfaced as a warning on it.
type Publisher interface {
	Publish(ctx context.Context, videoPath, title, description string) (string, error)
}
