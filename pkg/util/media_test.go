package util

import (
	"strings"
	"testing"
)

func TestParseFfprobeOutput(t *testing.T) {
	payload := []byte(`{
		"streams": [
			{"codec_type": "audio", "duration": "29.5"},
			{"codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001", "duration": "30.03"}
		],
		"format": {"duration": "30.120000"}
	}`)

	info, err := parseFfprobeOutput(payload)
	if err != nil {
		t.Fatalf("parseFfprobeOutput() error: %v", err)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Fatalf("resolution = %dx%d, want 1920x1080", info.Width, info.Height)
	}
	if info.Duration != 30.12 {
		t.Fatalf("duration = %f, want 30.12", info.Duration)
	}
	if info.FrameRate < 29.9 || info.FrameRate > 30.0 {
		t.Fatalf("frame rate = %f, want ~29.97", info.FrameRate)
	}
}

func TestParseFfprobeOutputFallsBackToStreamDuration(t *testing.T) {
	payload := []byte(`{
		"streams": [{"codec_type": "video", "width": 640, "height": 480, "r_frame_rate": "25/1", "duration": "12.5"}],
		"format": {}
	}`)

	info, err := parseFfprobeOutput(payload)
	if err != nil {
		t.Fatalf("parseFfprobeOutput() error: %v", err)
	}
	if info.Duration != 12.5 {
		t.Fatalf("duration = %f, want 12.5", info.Duration)
	}
	if info.FrameRate != 25 {
		t.Fatalf("frame rate = %f, want 25", info.FrameRate)
	}
}

func TestParseFrameRate(t *testing.T) {
	testCases := []struct {
		raw  string
		want float64
	}{
		{"25/1", 25},
		{"30", 30},
		{"0/0", 0},
		{"", 0},
		{"bogus", 0},
	}
	for _, tc := range testCases {
		if got := parseFrameRate(tc.raw); got != tc.want {
			t.Fatalf("parseFrameRate(%q) = %f, want %f", tc.raw, got, tc.want)
		}
	}
}

func TestConcatListContentEscapesQuotes(t *testing.T) {
	content := ConcatListContent([]string{"/a/plain.mp3", "/a/it's here.mp3"})

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "file '") {
		t.Fatalf("line %q should start with file '", lines[0])
	}
	if !strings.Contains(lines[1], `'\''`) {
		t.Fatalf("line %q should escape the single quote", lines[1])
	}
}

func TestExtractJsonFromText(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "markdown fenced",
			in:   "Here you go:\n```json\n[{\"index\":0}]\n```",
			want: `[{"index":0}]`,
		},
		{
			name: "bare array with prose",
			in:   `Sure! [{"index":0}] hope that helps`,
			want: `[{"index":0}]`,
		},
		{
			name: "object",
			in:   `prefix {"a":1} suffix`,
			want: `{"a":1}`,
		},
		{
			name: "no json returns raw",
			in:   "nothing here",
			want: "nothing here",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJsonFromText(tc.in); got != tc.want {
				t.Fatalf("ExtractJsonFromText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateRandStr(t *testing.T) {
	s := GenerateRandStr(16)
	if len(s) != 16 {
		t.Fatalf("length = %d, want 16", len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune(randCharset, c) {
			t.Fatalf("unexpected character %q", c)
		}
	}
}
