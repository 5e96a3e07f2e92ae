package googletts

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"commentary-ai/log"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const synthesizeUrl = "https://texttospeech.googleapis.com/v1/text:synthesize"

// Client implements types.Ttser against the Google Cloud Text-to-Speech
// REST API using an API key.
type Client struct {
	apiKey       string
	languageCode string
	http         *resty.Client
}

func NewClient(apiKey, languageCode string) *Client {
	if languageCode == "" {
		languageCode = "en-GB"
	}
	return &Client{
		apiKey:       apiKey,
		languageCode: languageCode,
		http:         resty.New(),
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
	Error        struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) Text2Speech(ctx context.Context, text, voice, outputFilePath string) (float64, error) {
	if err := os.MkdirAll(filepath.Dir(outputFilePath), 0o755); err != nil {
		return 0, errors.Wrap(errors.CodeFileWriteError, "create tts output dir", err)
	}
	if voice == "" {
		voice = "en-GB-Journey-O"
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = c.languageCode
	reqBody.Voice.Name = voice
	reqBody.AudioConfig.AudioEncoding = "MP3"

	var respBody synthesizeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", c.apiKey).
		SetBody(reqBody).
		SetResult(&respBody).
		SetError(&respBody).
		Post(synthesizeUrl)
	if err != nil {
		return 0, errors.Wrap(errors.CodeProviderTransient, "speech synthesis request failed", err)
	}

	if resp.StatusCode() != http.StatusOK {
		providerErr := fmt.Errorf("google tts status %d: %s", resp.StatusCode(), respBody.Error.Message)
		switch {
		case resp.StatusCode() == http.StatusTooManyRequests:
			return 0, errors.Wrap(errors.CodeProviderRateLimited, "speech synthesis rate limited", providerErr)
		case resp.StatusCode() >= 500:
			return 0, errors.Wrap(errors.CodeProviderTransient, "speech synthesis provider error", providerErr)
		default:
			return 0, errors.Wrap(errors.CodeProviderUnavailable, "speech synthesis failed", providerErr)
		}
	}

	if respBody.AudioContent == "" {
		return 0, errors.New(errors.CodeProviderResponseMalformed, "google tts returned empty audio")
	}
	audioBytes, err := base64.StdEncoding.DecodeString(respBody.AudioContent)
	if err != nil {
		return 0, errors.Wrap(errors.CodeProviderResponseMalformed, "decode google tts audio", err)
	}

	if err = os.WriteFile(outputFilePath, audioBytes, 0o644); err != nil {
		return 0, errors.Wrap(errors.CodeFileWriteError, "write tts output file", err)
	}

	duration, err := util.AudioDuration(outputFilePath)
	if err != nil {
		return 0, errors.Wrap(errors.CodeSynthesisUnavailable, "probe rendered audio duration", err)
	}

	log.GetLogger().Debug("google tts success", zap.String("output", outputFilePath), zap.Int("bytes", len(audioBytes)))
	return duration, nil
}
