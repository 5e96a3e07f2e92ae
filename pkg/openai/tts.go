package openai

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"github.com/sashabaranov/go-openai"
)

// Text2Speech renders text to an mp3 file and returns the rendered
// duration in seconds.
func (c *Client) Text2Speech(ctx context.Context, text, voice, outputFilePath string) (float64, error) {
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	if err := os.MkdirAll(filepath.Dir(outputFilePath), 0o755); err != nil {
		return 0, errors.Wrap(errors.CodeFileWriteError, "create tts output dir", err)
	}

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return 0, mapProviderError("speech synthesis", err)
	}
	defer resp.Close()

	audioBytes, err := io.ReadAll(resp)
	if err != nil {
		return 0, errors.Wrap(errors.CodeProviderTransient, "read speech response", err)
	}
	if len(audioBytes) == 0 {
		return 0, errors.New(errors.CodeProviderResponseMalformed, "speech synthesis returned empty audio")
	}

	if err = os.WriteFile(outputFilePath, audioBytes, 0o644); err != nil {
		return 0, errors.Wrap(errors.CodeFileWriteError, "write tts output file", err)
	}

	duration, err := util.AudioDuration(outputFilePath)
	if err != nil {
		return 0, errors.Wrap(errors.CodeSynthesisUnavailable, "probe rendered audio duration", err)
	}
	return duration, nil
}
