package types

// Category describes the commentary style and overlay applied to a run.
type Category string

const (
	CategoryNature       Category = "nature"
	CategoryNews         Category = "news"
	CategoryFunny        Category = "funny"
	CategoryInfographic  Category = "infographic"
	CategoryUnclassified Category = "unclassified"
)

// Categories lists every canonical category except Unclassified.
var Categories = []Category{CategoryNature, CategoryNews, CategoryFunny, CategoryInfographic}

// SourceVideo is an immutable reference to a local media file. The caller
// owns the file; the pipeline never mutates it.
type SourceVideo struct {
	Path      string
	Duration  float64 // seconds
	FrameRate float64
	Width     int
	Height    int
}

// Frame is one sampled image. Index is contiguous from 0, Timestamp is the
// offset into the source video in seconds.
type Frame struct {
	Index     int
	Timestamp float64
	Path      string
}

type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type DetectedObject struct {
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box,omitempty"` // x, y, w, h normalized
}

// FrameAnalysis is the vision capability's verdict on a single frame.
type FrameAnalysis struct {
	FrameIndex int              `json:"frame_index"`
	Labels     []Label          `json:"labels"`
	Objects    []DetectedObject `json:"objects"`
	SceneTags  []string         `json:"scene_tags"`
}

// ContentSummary aggregates per-frame analyses into one description of the
// video, plus the inferred category. Category is always set, Unclassified
// when nothing clears the confidence threshold.
type ContentSummary struct {
	Labels         []Label
	Objects        []Label
	SceneTags      []string
	Category       Category
	FramesAnalyzed int
	FramesDropped  int
}

// ScriptSegment is one timed narration beat. Index is contiguous from 0 and
// TargetDuration is always positive.
type ScriptSegment struct {
	Index          int     `json:"index"`
	Text           string  `json:"text"`
	TargetDuration float64 `json:"duration_seconds"`
}

type Script struct {
	Segments      []ScriptSegment
	TotalDuration float64 // sum of target durations after rescaling
}

// AudioSegment is the rendered audio for one ScriptSegment. Index matches
// the source segment; Filler marks a substituted fallback clip.
type AudioSegment struct {
	Index          int
	FilePath       string
	ActualDuration float64
	Filler         bool
}

// OverlayAsset is the per-category visual kit burned into the output.
type OverlayAsset struct {
	Category      Category
	LogoPath      string
	FrameTemplate string
}

type SampleStrategy string

const (
	SampleUniform SampleStrategy = "uniform"
	SampleScene   SampleStrategy = "scene"
)

// RunOptions are the caller-tunable knobs for one run. Zero values fall
// back to configuration defaults.
type RunOptions struct {
	FrameCount         int
	SampleStrategy     SampleStrategy
	TargetDurationHint float64 // seconds, 0 = match source duration
	MaxConcurrency     int
	PerCallTimeout     int // seconds
	Publish            bool
	VideoTitle         string
}

// ProgressEvent is emitted at every stage transition.
type ProgressEvent struct {
	RunId    string `json:"run_id"`
	Stage    Stage  `json:"stage"`
	StageStr string `json:"stage_name"`
	Percent  int    `json:"percent"`
	Message  string `json:"message,omitempty"`
}
