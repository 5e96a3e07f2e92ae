package gemini

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"net/http"
	"os"

	"commentary-ai/internal/types"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"google.golang.org/genai"
)

// Client is the Gemini-backed vision capability.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeProviderUnavailable, "create gemini client", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{client: gc, model: model}, nil
}

// AnalyzeImage sends one frame with the analysis prompt and parses the
// strict-JSON frame description.
func (c *Client) AnalyzeImage(ctx context.Context, imagePath string) (types.FrameAnalysis, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return types.FrameAnalysis{}, errors.Wrap(errors.CodeFileNotFound, "read frame image", err)
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: types.VisionPrompt},
				{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: imageBytes}},
			},
		},
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return types.FrameAnalysis{}, mapProviderError(err)
	}

	text := resp.Text()
	if text == "" {
		return types.FrameAnalysis{}, errors.New(errors.CodeProviderResponseMalformed, "vision analysis returned no text")
	}

	var analysis types.FrameAnalysis
	raw := util.ExtractJsonFromText(text)
	if err = json.Unmarshal([]byte(raw), &analysis); err != nil {
		return types.FrameAnalysis{}, errors.WrapWithDetail(errors.CodeProviderResponseMalformed, "vision analysis response is not valid JSON", raw, err)
	}
	return analysis, nil
}

func mapProviderError(err error) error {
	var apiErr genai.APIError
	if goerrors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return errors.Wrap(errors.CodeProviderRateLimited, "vision analysis rate limited", err)
		case apiErr.Code >= 500:
			return errors.Wrap(errors.CodeProviderTransient, "vision analysis provider error", err)
		default:
			return errors.Wrap(errors.CodeProviderUnavailable, "vision analysis failed", err)
		}
	}
	return errors.Wrap(errors.CodeProviderTransient, "vision analysis request failed", err)
}
