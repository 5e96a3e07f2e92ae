package util

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"commentary-ai/internal/storage"
	"commentary-ai/log"

	"go.uber.org/zap"
)

type MediaInfo struct {
	Duration  float64
	Width     int
	Height    int
	FrameRate float64
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeMedia reads duration, resolution and frame rate with ffprobe.
func ProbeMedia(filePath string) (MediaInfo, error) {
	cmdArgs := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}
	cmd := exec.Command(storage.FfprobePath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("ffprobe failed", zap.Error(err), zap.String("file", filePath), zap.String("output", string(output)))
		return MediaInfo{}, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}
	return parseFfprobeOutput(output)
}

func parseFfprobeOutput(output []byte) (MediaInfo, error) {
	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := MediaInfo{}
	if probed.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)
	}
	for _, stream := range probed.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.Width = stream.Width
		info.Height = stream.Height
		info.FrameRate = parseFrameRate(stream.RFrameRate)
		if info.Duration == 0 && stream.Duration != "" {
			info.Duration, _ = strconv.ParseFloat(stream.Duration, 64)
		}
		break
	}
	return info, nil
}

// parseFrameRate converts ffprobe's "30000/1001" notation into a float.
func parseFrameRate(raw string) float64 {
	if raw == "" {
		return 0
	}
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) == 1 {
		value, _ := strconv.ParseFloat(parts[0], 64)
		return value
	}
	numerator, err1 := strconv.ParseFloat(parts[0], 64)
	denominator, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// AudioDuration reads the duration of an audio file in seconds.
func AudioDuration(filePath string) (float64, error) {
	info, err := ProbeMedia(filePath)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// GenerateSilence writes a silent mono audio file of the given length.
func GenerateSilence(outputPath string, durationSeconds float64) error {
	cmdArgs := []string{
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=mono",
		"-t", strconv.FormatFloat(durationSeconds, 'f', 3, 64),
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		outputPath,
	}
	cmd := exec.Command(storage.FfmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("generate silence failed", zap.Error(err), zap.String("output", string(output)))
		return fmt.Errorf("generate silence: %w", err)
	}
	return nil
}

// ConcatAudioFiles joins audio files in order using the concat demuxer. The
// list file is written next to the output.
func ConcatAudioFiles(inputPaths []string, outputPath string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("no audio files to concat")
	}

	listPath := outputPath + ".txt"
	if err := os.WriteFile(listPath, []byte(ConcatListContent(inputPaths)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	cmdArgs := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		outputPath,
	}
	cmd := exec.Command(storage.FfmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("concat audio failed", zap.Error(err), zap.String("output", string(output)))
		return fmt.Errorf("concat audio: %w", err)
	}
	return nil
}

// ConcatListContent renders the concat demuxer list. Single quotes in paths
// are escaped per ffmpeg's quoting rules.
func ConcatListContent(inputPaths []string) string {
	var builder strings.Builder
	for _, p := range inputPaths {
		abs := p
		if a, err := filepath.Abs(p); err == nil {
			abs = a
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		builder.WriteString("file '")
		builder.WriteString(escaped)
		builder.WriteString("'\n")
	}
	return builder.String()
}
