package storage

// Resolved media binary paths, set once at startup by internal/deps and
// read-only afterwards.
var (
	FfmpegPath  = "ffmpeg"
	FfprobePath = "ffprobe"
)
