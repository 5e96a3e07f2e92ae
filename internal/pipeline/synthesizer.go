package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"commentary-ai/internal/types"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	fillerSilence  = "silence"
	fillerSkipNote = "skip-note"

	skipNotePhrase = "Let's keep watching."
)

// Synthesizer renders script segments to audio on a bounded pool. A
// segment whose synthesis fails after retries gets a filler clip instead
// of aborting the run; index contiguity is preserved either way.
// Implements types.SpeechSynthesizer.
type Synthesizer struct {
	tts            types.Ttser
	voice          string
	filler         string
	concurrency    int
	maxRetries     int
	perCallTimeout time.Duration
	limiter        *rate.Limiter

	// swappable for tests; generates local silence with ffmpeg otherwise
	genSilence func(outputPath string, durationSeconds float64) error
}

func NewSynthesizer(tts types.Ttser, voice, filler string, concurrency, maxRetries int, perCallTimeout time.Duration, limiter *rate.Limiter) *Synthesizer {
	if filler == "" {
		filler = fillerSilence
	}
	return &Synthesizer{
		tts:            tts,
		voice:          voice,
		filler:         filler,
		concurrency:    concurrency,
		maxRetries:     maxRetries,
		perCallTimeout: perCallTimeout,
		limiter:        limiter,
		genSilence: func(outputPath string, durationSeconds float64) error {
			return util.GenerateSilence(outputPath, durationSeconds)
		},
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, script types.Script, scratchDir string) ([]types.AudioSegment, error) {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.CodeFileWriteError, "create audio scratch dir", err)
	}

	segments := script.Segments
	results, err := fanOut(ctx, len(segments), s.concurrency, s.limiter, s.maxRetries, s.perCallTimeout,
		func(callCtx context.Context, index int) (types.AudioSegment, error) {
			seg := segments[index]
			outputPath := filepath.Join(scratchDir, fmt.Sprintf("segment_%03d.mp3", seg.Index))
			duration, callErr := s.tts.Text2Speech(callCtx, seg.Text, s.voice, outputPath)
			if callErr != nil {
				return types.AudioSegment{}, callErr
			}
			return types.AudioSegment{Index: seg.Index, FilePath: outputPath, ActualDuration: duration}, nil
		})
	if err != nil {
		return nil, err
	}

	audio := make([]types.AudioSegment, len(segments))
	for i, r := range results {
		if r.Err == nil {
			audio[i] = r.Value
			continue
		}
		log.GetLogger().Warn("segment synthesis failed, substituting filler",
			zap.Int("segment", segments[i].Index),
			zap.String("filler", s.filler),
			zap.Error(r.Err))
		fillerSeg, fillerErr := s.makeFiller(ctx, segments[i], scratchDir)
		if fillerErr != nil {
			return nil, errors.Wrap(errors.CodeSynthesisUnavailable,
				fmt.Sprintf("filler synthesis failed for segment %d", segments[i].Index), fillerErr)
		}
		audio[i] = fillerSeg
	}
	return audio, nil
}

func (s *Synthesizer) makeFiller(ctx context.Context, seg types.ScriptSegment, scratchDir string) (types.AudioSegment, error) {
	outputPath := filepath.Join(scratchDir, fmt.Sprintf("segment_%03d_filler.mp3", seg.Index))

	if s.filler == fillerSkipNote {
		if duration, err := s.tts.Text2Speech(ctx, skipNotePhrase, s.voice, outputPath); err == nil {
			return types.AudioSegment{Index: seg.Index, FilePath: outputPath, ActualDuration: duration, Filler: true}, nil
		}
		// The generic phrase needs the same broken provider; fall through
		// to local silence.
	}

	if err := s.genSilence(outputPath, seg.TargetDuration); err != nil {
		return types.AudioSegment{}, err
	}
	return types.AudioSegment{
		Index:          seg.Index,
		FilePath:       outputPath,
		ActualDuration: seg.TargetDuration,
		Filler:         true,
	}, nil
}
