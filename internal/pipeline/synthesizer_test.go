package pipeline

import (
	"context"
	"testing"

	"commentary-ai/internal/mocks"
	"commentary-ai/internal/types"
	"commentary-ai/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func threeSegmentScript() types.Script {
	return types.Script{
		Segments: []types.ScriptSegment{
			{Index: 0, Text: "first", TargetDuration: 10},
			{Index: 1, Text: "second", TargetDuration: 10},
			{Index: 2, Text: "third", TargetDuration: 10},
		},
		TotalDuration: 30,
	}
}

func TestSynthesizeRendersEverySegment(t *testing.T) {
	tts := &mocks.MockTtser{}
	tts.On("Text2Speech", mock.Anything, mock.Anything, "alloy", mock.Anything).Return(9.8, nil)

	synth := NewSynthesizer(tts, "alloy", fillerSilence, 2, 0, 0, nil)

	audio, err := synth.Synthesize(context.Background(), threeSegmentScript(), t.TempDir())
	assert.NoError(t, err)
	assert.Len(t, audio, 3)
	for i, seg := range audio {
		assert.Equal(t, i, seg.Index)
		assert.False(t, seg.Filler)
		assert.InDelta(t, 9.8, seg.ActualDuration, 0.001)
		assert.NotEmpty(t, seg.FilePath)
	}
	tts.AssertNumberOfCalls(t, "Text2Speech", 3)
}

func TestSynthesizeSubstitutesFillerOnSegmentFailure(t *testing.T) {
	tts := &mocks.MockTtser{}
	tts.On("Text2Speech", mock.Anything, "first", mock.Anything, mock.Anything).Return(9.5, nil)
	tts.On("Text2Speech", mock.Anything, "second", mock.Anything, mock.Anything).Return(0.0, errors.ErrProviderMalformed)
	tts.On("Text2Speech", mock.Anything, "third", mock.Anything, mock.Anything).Return(10.5, nil)

	synth := NewSynthesizer(tts, "alloy", fillerSilence, 2, 0, 0, nil)
	silenceCalls := 0
	synth.genSilence = func(outputPath string, durationSeconds float64) error {
		silenceCalls++
		assert.InDelta(t, 10, durationSeconds, 0.001)
		return nil
	}

	audio, err := synth.Synthesize(context.Background(), threeSegmentScript(), t.TempDir())
	assert.NoError(t, err)
	assert.Len(t, audio, 3)
	assert.Equal(t, 1, silenceCalls)

	// Index contiguity holds, the failed slot carries the filler.
	assert.False(t, audio[0].Filler)
	assert.True(t, audio[1].Filler)
	assert.False(t, audio[2].Filler)
	assert.Equal(t, 1, audio[1].Index)
	assert.InDelta(t, 10, audio[1].ActualDuration, 0.001)
}

func TestSynthesizeFailsWhenFillerCannotBeMade(t *testing.T) {
	tts := &mocks.MockTtser{}
	tts.On("Text2Speech", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0.0, errors.ErrProviderTransient)

	synth := NewSynthesizer(tts, "alloy", fillerSilence, 2, 0, 0, nil)
	synth.genSilence = func(outputPath string, durationSeconds float64) error {
		return errors.New(errors.CodeFileWriteError, "ffmpeg broken")
	}

	_, err := synth.Synthesize(context.Background(), threeSegmentScript(), t.TempDir())
	assert.True(t, errors.Is(err, errors.CodeSynthesisUnavailable), "error = %v", err)
}

func TestSynthesizeSkipNoteFillerUsesGenericPhrase(t *testing.T) {
	tts := &mocks.MockTtser{}
	tts.On("Text2Speech", mock.Anything, "first", mock.Anything, mock.Anything).Return(0.0, errors.ErrProviderMalformed).Once()
	tts.On("Text2Speech", mock.Anything, "second", mock.Anything, mock.Anything).Return(9.0, nil)
	tts.On("Text2Speech", mock.Anything, "third", mock.Anything, mock.Anything).Return(9.0, nil)
	tts.On("Text2Speech", mock.Anything, skipNotePhrase, mock.Anything, mock.Anything).Return(1.2, nil)

	synth := NewSynthesizer(tts, "alloy", fillerSkipNote, 1, 0, 0, nil)

	audio, err := synth.Synthesize(context.Background(), threeSegmentScript(), t.TempDir())
	assert.NoError(t, err)
	assert.True(t, audio[0].Filler)
	assert.InDelta(t, 1.2, audio[0].ActualDuration, 0.001)
}
