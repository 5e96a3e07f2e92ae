package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"commentary-ai/config"
	"commentary-ai/internal/types"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"github.com/sashabaranov/go-openai"
)

// AnalyzeImage sends one frame through the multimodal chat endpoint and
// parses the strict-JSON frame description.
func (c *Client) AnalyzeImage(ctx context.Context, imagePath string) (types.FrameAnalysis, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return types.FrameAnalysis{}, errors.Wrap(errors.CodeFileNotFound, "read frame image", err)
	}
	dataUrl := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(imageBytes))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: config.Conf.Vision.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: types.VisionPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataUrl,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return types.FrameAnalysis{}, mapProviderError("vision analysis", err)
	}
	if len(resp.Choices) == 0 {
		return types.FrameAnalysis{}, errors.New(errors.CodeProviderResponseMalformed, "vision analysis returned no choices")
	}

	var analysis types.FrameAnalysis
	raw := util.ExtractJsonFromText(resp.Choices[0].Message.Content)
	if err = json.Unmarshal([]byte(raw), &analysis); err != nil {
		return types.FrameAnalysis{}, errors.WrapWithDetail(errors.CodeProviderResponseMalformed, "vision analysis response is not valid JSON", raw, err)
	}
	return analysis, nil
}
