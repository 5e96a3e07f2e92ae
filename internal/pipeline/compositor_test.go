package pipeline

import (
	"strings"
	"testing"

	"commentary-ai/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestBuildComposeArgsLogoOnly(t *testing.T) {
	video := types.SourceVideo{Path: "in.mp4", Width: 1920, Height: 1080}
	asset := types.OverlayAsset{Category: types.CategoryNature, LogoPath: "nature_logo.png"}

	args := buildComposeArgs(video, "narration.mp3", asset, 29.7, "out.mp4")
	joined := strings.Join(args, " ")

	// The visual track loops until the narration cut-off.
	assert.Contains(t, joined, "-stream_loop -1 -i in.mp4")
	assert.Contains(t, joined, "-t 29.700")
	// Logo scaled to a sixth of the frame width, pinned top-right.
	assert.Contains(t, joined, "scale=320:-1[logo]")
	assert.Contains(t, joined, "overlay=main_w-overlay_w-20:20[vout]")
	// Narration replaces the original audio track entirely.
	assert.Contains(t, joined, "-map [vout] -map 1:a")
	assert.NotContains(t, joined, "0:a")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestBuildComposeArgsWithFrameTemplate(t *testing.T) {
	video := types.SourceVideo{Path: "in.mp4", Width: 1280, Height: 720}
	asset := types.OverlayAsset{
		Category:      types.CategoryNews,
		LogoPath:      "news_logo.png",
		FrameTemplate: "news_frame.png",
	}

	args := buildComposeArgs(video, "narration.mp3", asset, 12, "out.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-i news_frame.png")
	assert.Contains(t, joined, "[3:v]scale=1280:720[frametpl]")
	assert.Contains(t, joined, "[0:v][frametpl]overlay=0:0[framed]")
	// Logo overlays on top of the framed video.
	assert.Contains(t, joined, "[framed][logo]overlay")
}

func TestBuildComposeArgsDefaultsUnknownGeometry(t *testing.T) {
	video := types.SourceVideo{Path: "in.mp4"}
	asset := types.OverlayAsset{LogoPath: "logo.png"}

	args := buildComposeArgs(video, "narration.mp3", asset, 10, "out.mp4")
	assert.Contains(t, strings.Join(args, " "), "scale=160:-1[logo]")
}
