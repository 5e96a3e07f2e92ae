package types

import "time"

// PipelineRun is the aggregate root for one invocation, persisted so the
// history survives restarts. The orchestrator is its sole mutator.
type PipelineRun struct {
	Id         uint   `gorm:"primarykey" json:"-"`
	RunId      string `gorm:"type:varchar(64);uniqueIndex" json:"run_id"`
	VideoPath  string `gorm:"type:varchar(1024)" json:"video_path"`
	VideoTitle string `gorm:"type:varchar(256)" json:"video_title"`

	Stage    Stage  `gorm:"index" json:"stage"`
	Category string `gorm:"type:varchar(32)" json:"category"`

	OutputPath   string `gorm:"type:varchar(1024)" json:"output_path"`
	PublishedUrl string `gorm:"type:varchar(1024)" json:"published_url,omitempty"`

	SegmentCount int `json:"segment_count"`
	FillerCount  int `json:"filler_count"`

	FailCode   int    `json:"fail_code,omitempty"`
	FailReason string `gorm:"type:varchar(1024)" json:"fail_reason,omitempty"`
	// Warning carries non-fatal notes, filler substitutions and publish
	// failures included.
	Warning string `gorm:"type:varchar(1024)" json:"warning,omitempty"`

	CreateTime time.Time `gorm:"autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"autoUpdateTime" json:"update_time"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
