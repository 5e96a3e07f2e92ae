package openai

import (
	"context"

	"commentary-ai/config"
	"commentary-ai/pkg/errors"

	"github.com/sashabaranov/go-openai"
)

// ChatCompletion sends one system+user exchange and returns the assistant
// text.
func (c *Client) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: config.Conf.Llm.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", mapProviderError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.CodeProviderResponseMalformed, "chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
