package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"commentary-ai/internal/storage"
	"commentary-ai/internal/types"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"

	"go.uber.org/zap"
)

const sceneChangeThreshold = 0.3

// Sampler extracts representative frames with ffmpeg. Implements
// types.FrameSampler.
type Sampler struct {
	maxFrames int
}

func NewSampler(maxFrames int) *Sampler {
	if maxFrames < 1 {
		maxFrames = 1
	}
	return &Sampler{maxFrames: maxFrames}
}

func (s *Sampler) Sample(ctx context.Context, video types.SourceVideo, count int, strategy types.SampleStrategy, scratchDir string) ([]types.Frame, error) {
	if video.Duration <= 0 {
		return nil, errors.ErrEmptyVideo
	}
	if count < 1 {
		count = 1
	}
	if count > s.maxFrames {
		count = s.maxFrames
	}
	// Never ask for more frames than the video has.
	if video.FrameRate > 0 {
		if available := int(video.Duration * video.FrameRate); available > 0 && count > available {
			count = available
		}
	}

	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.CodeFileWriteError, "create frame scratch dir", err)
	}

	timestamps := uniformTimestamps(video.Duration, count)
	if strategy == types.SampleScene {
		sceneTimestamps, err := s.detectSceneTimestamps(ctx, video.Path)
		if err != nil {
			// Scene detection failing on a readable file falls back to
			// uniform picks.
			log.GetLogger().Warn("scene detection failed, falling back to uniform sampling",
				zap.String("video", video.Path), zap.Error(err))
		} else {
			timestamps = mergeSceneWithUniform(sceneTimestamps, video.Duration, count)
		}
	}

	frames := make([]types.Frame, 0, len(timestamps))
	for i, ts := range timestamps {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.CodeCancelled, "sampling cancelled", ctx.Err())
		}
		framePath := filepath.Join(scratchDir, fmt.Sprintf("frame_%03d.jpg", i))
		if err := s.extractFrame(ctx, video.Path, ts, framePath); err != nil {
			return nil, err
		}
		frames = append(frames, types.Frame{Index: i, Timestamp: ts, Path: framePath})
	}

	log.GetLogger().Info("sampled frames",
		zap.String("video", video.Path),
		zap.Int("count", len(frames)),
		zap.String("strategy", string(strategy)))
	return frames, nil
}

func (s *Sampler) extractFrame(ctx context.Context, videoPath string, timestamp float64, outputPath string) error {
	cmdArgs := []string{
		"-y",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, storage.FfmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("frame extraction failed",
			zap.String("video", videoPath),
			zap.Float64("timestamp", timestamp),
			zap.String("output", string(output)),
			zap.Error(err))
		return errors.Wrap(errors.CodeUnreadableVideo, "extract frame", err)
	}
	if _, err = os.Stat(outputPath); err != nil {
		return errors.Wrap(errors.CodeUnreadableVideo, "frame image missing after extraction", err)
	}
	return nil
}

// detectSceneTimestamps runs the ffmpeg scene filter and collects the
// timestamps of detected cuts from the showinfo output.
func (s *Sampler) detectSceneTimestamps(ctx context.Context, videoPath string) ([]float64, error) {
	cmdArgs := []string{
		"-i", videoPath,
		"-vf", fmt.Sprintf("select='gt(scene,%0.2f)',showinfo", sceneChangeThreshold),
		"-f", "null", "-",
	}
	cmd := exec.CommandContext(ctx, storage.FfmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("scene detection: %w", err)
	}
	return parseSceneTimestamps(string(output)), nil
}

var ptsTimeRe = regexp.MustCompile(`pts_time:([0-9]+(?:\.[0-9]+)?)`)

func parseSceneTimestamps(ffmpegOutput string) []float64 {
	matches := ptsTimeRe.FindAllStringSubmatch(ffmpegOutput, -1)
	timestamps := make([]float64, 0, len(matches))
	for _, m := range matches {
		if ts, err := strconv.ParseFloat(m[1], 64); err == nil {
			timestamps = append(timestamps, ts)
		}
	}
	sort.Float64s(timestamps)
	return timestamps
}

// uniformTimestamps picks count midpoints evenly spaced across the
// duration. All values are strictly increasing and inside [0, duration).
func uniformTimestamps(duration float64, count int) []float64 {
	timestamps := make([]float64, count)
	step := duration / float64(count)
	for i := 0; i < count; i++ {
		timestamps[i] = (float64(i) + 0.5) * step
	}
	return timestamps
}

// mergeSceneWithUniform biases picks toward scene changes and fills the
// remainder with uniform timestamps when there are not enough distinct
// cuts. Picks closer than minGap to an already chosen timestamp count as
// duplicates.
func mergeSceneWithUniform(sceneTimestamps []float64, duration float64, count int) []float64 {
	minGap := duration / float64(count*4)
	picked := make([]float64, 0, count)

	appendDistinct := func(ts float64) {
		if ts < 0 || ts >= duration || len(picked) >= count {
			return
		}
		for _, existing := range picked {
			if diff := ts - existing; diff < minGap && diff > -minGap {
				return
			}
		}
		picked = append(picked, ts)
	}

	for _, ts := range sceneTimestamps {
		appendDistinct(ts)
	}
	for _, ts := range uniformTimestamps(duration, count) {
		appendDistinct(ts)
	}

	sort.Float64s(picked)
	return picked
}
