package tts

import (
	"context"
	"strings"

	"commentary-ai/config"
	"commentary-ai/internal/types"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/googletts"
	"commentary-ai/pkg/openai"

	"go.uber.org/zap"
)

// openaiVoices are the fixed voice names of the OpenAI speech endpoint.
var openaiVoices = map[string]bool{
	"alloy": true, "echo": true, "fable": true,
	"onyx": true, "nova": true, "shimmer": true,
}

// CompositeTtsClient manages the configured TTS providers and routes
// requests by voice name.
type CompositeTtsClient struct {
	OpenAI  *openai.Client
	Google  *googletts.Client
	Default types.Ttser
}

func NewCompositeTtsClient() *CompositeTtsClient {
	c := &CompositeTtsClient{}

	// Config presence is checked lightly here; bad credentials surface at
	// call time.
	if config.Conf.Openai.ApiKey != "" {
		c.OpenAI = openai.NewClient(config.Conf.Openai.BaseUrl, config.Conf.Openai.ApiKey, config.Conf.App.Proxy)
	}
	if config.Conf.Tts.Google.ApiKey != "" {
		c.Google = googletts.NewClient(config.Conf.Tts.Google.ApiKey, config.Conf.Tts.Google.LanguageCode)
	}

	switch config.Conf.Tts.Provider {
	case "google":
		c.Default = c.Google
	case "openai":
		c.Default = c.OpenAI
	}
	if c.Default == nil {
		if c.OpenAI != nil {
			c.Default = c.OpenAI
		} else {
			c.Default = c.Google
		}
	}

	return c
}

func (c *CompositeTtsClient) Text2Speech(ctx context.Context, text, voice, outputFile string) (float64, error) {
	// Google Cloud voices look like en-GB-Journey-O / en-US-Neural2-F.
	if isGoogleVoice(voice) && c.Google != nil {
		log.GetLogger().Debug("routing to google tts", zap.String("voice", voice))
		return c.Google.Text2Speech(ctx, text, voice, outputFile)
	}

	if openaiVoices[strings.ToLower(voice)] && c.OpenAI != nil {
		log.GetLogger().Debug("routing to openai tts", zap.String("voice", voice))
		return c.OpenAI.Text2Speech(ctx, text, voice, outputFile)
	}

	if c.Default == nil {
		return 0, errors.New(errors.CodeSynthesisUnavailable, "no tts provider configured")
	}
	log.GetLogger().Debug("routing to default tts", zap.String("voice", voice), zap.String("provider", config.Conf.Tts.Provider))
	return c.Default.Text2Speech(ctx, text, voice, outputFile)
}

func isGoogleVoice(voice string) bool {
	if len(strings.Split(voice, "-")) < 3 {
		return false
	}
	for _, family := range []string{"Journey", "Neural2", "Wavenet", "Studio", "Standard"} {
		if strings.Contains(voice, "-"+family) {
			return true
		}
	}
	return false
}
