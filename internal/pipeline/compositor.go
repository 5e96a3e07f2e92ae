package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"commentary-ai/internal/storage"
	"commentary-ai/internal/types"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"go.uber.org/zap"
)

const overlayMarginPx = 20

// Compositor concatenates the narration track, fits the visual track to
// it, burns the category overlay in, and muxes the result. The finished
// file only ever appears at the delivery path via rename, so a failed run
// leaves nothing half-written there. Implements types.Compositor.
type Compositor struct{}

func NewCompositor() *Compositor {
	return &Compositor{}
}

func (c *Compositor) Compose(ctx context.Context, video types.SourceVideo, segments []types.AudioSegment, asset types.OverlayAsset, outputPath string) (string, error) {
	if len(segments) == 0 {
		return "", errors.New(errors.CodeCompositionFailed, "no audio segments to compose")
	}

	workDir := outputPath + ".work"
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", errors.Wrap(errors.CodeFileWriteError, "create composition work dir", err)
	}
	defer os.RemoveAll(workDir)

	ordered := make([]types.AudioSegment, len(segments))
	copy(ordered, segments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	audioPaths := make([]string, len(ordered))
	narrationDuration := 0.0
	for i, seg := range ordered {
		audioPaths[i] = seg.FilePath
		narrationDuration += seg.ActualDuration
	}

	narrationPath := filepath.Join(workDir, "narration.mp3")
	if err := util.ConcatAudioFiles(audioPaths, narrationPath); err != nil {
		return "", errors.Wrap(errors.CodeCompositionFailed, "concatenate narration", err)
	}

	// Prefer the muxed track's real length over the per-segment sum.
	if probed, err := util.AudioDuration(narrationPath); err == nil && probed > 0 {
		narrationDuration = probed
	}

	tmpOutput := filepath.Join(workDir, "composed.mp4")
	cmdArgs := buildComposeArgs(video, narrationPath, asset, narrationDuration, tmpOutput)

	cmd := exec.CommandContext(ctx, storage.FfmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("composition failed",
			zap.String("video", video.Path),
			zap.String("output", string(output)),
			zap.Error(err))
		return "", errors.Wrap(errors.CodeCompositionFailed, "mux output video", err)
	}

	if err = os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", errors.Wrap(errors.CodeFileWriteError, "create output dir", err)
	}
	if err = os.Rename(tmpOutput, outputPath); err != nil {
		return "", errors.Wrap(errors.CodeCompositionFailed, "deliver output video", err)
	}

	log.GetLogger().Info("composition complete",
		zap.String("output", outputPath),
		zap.Float64("duration", narrationDuration),
		zap.String("category", string(asset.Category)))
	return outputPath, nil
}

// buildComposeArgs assembles the single ffmpeg invocation: the visual
// track loops until trimmed to narration length, the logo sits top-right
// at a fixed margin scaled to a sixth of the frame width, the optional
// frame template is stretched over the full frame, and the original audio
// track is dropped in favor of the narration.
func buildComposeArgs(video types.SourceVideo, narrationPath string, asset types.OverlayAsset, durationSeconds float64, outputPath string) []string {
	logoWidth := video.Width / 6
	if logoWidth <= 0 {
		logoWidth = 160
	}

	args := []string{
		"-y",
		"-stream_loop", "-1",
		"-i", video.Path,
		"-i", narrationPath,
		"-i", asset.LogoPath,
	}

	var filter strings.Builder
	base := "[0:v]"
	if asset.FrameTemplate != "" {
		args = append(args, "-i", asset.FrameTemplate)
		width, height := video.Width, video.Height
		if width <= 0 || height <= 0 {
			width, height = 1280, 720
		}
		filter.WriteString(fmt.Sprintf("[3:v]scale=%d:%d[frametpl];[0:v][frametpl]overlay=0:0[framed];", width, height))
		base = "[framed]"
	}
	filter.WriteString(fmt.Sprintf("[2:v]scale=%d:-1[logo];%s[logo]overlay=main_w-overlay_w-%d:%d[vout]",
		logoWidth, base, overlayMarginPx, overlayMarginPx))

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[vout]",
		"-map", "1:a",
		"-t", strconv.FormatFloat(durationSeconds, 'f', 3, 64),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}
