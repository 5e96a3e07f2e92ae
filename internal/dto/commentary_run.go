package dto

// StartRunReq starts a commentary run for a local video file. Zero-valued
// tuning fields fall back to the configured defaults.
type StartRunReq struct {
	VideoPath string `json:"video_path" binding:"required"`
	Title     string `json:"title"`

	FrameCount     int     `json:"frame_count"`
	SampleStrategy string  `json:"sample_strategy"` // uniform | scene
	TargetDuration float64 `json:"target_duration"` // seconds
	MaxConcurrency int     `json:"max_concurrency"`
	PerCallTimeout int     `json:"per_call_timeout"` // seconds
	Publish        bool    `json:"publish"`
}

type StartRunResData struct {
	RunId string `json:"run_id"`
}

// GetRunReq polls the state of one run.
type GetRunReq struct {
	RunId string `form:"run_id" binding:"required"`
}

type GetRunResData struct {
	RunId        string `json:"run_id"`
	Stage        string `json:"stage"`
	Percent      int    `json:"percent"`
	Category     string `json:"category,omitempty"`
	OutputPath   string `json:"output_path,omitempty"`
	PublishedUrl string `json:"published_url,omitempty"`
	SegmentCount int    `json:"segment_count,omitempty"`
	FillerCount  int    `json:"filler_count,omitempty"`
	FailCode     int    `json:"fail_code,omitempty"`
	FailReason   string `json:"fail_reason,omitempty"`
	Warning      string `json:"warning,omitempty"`
}
