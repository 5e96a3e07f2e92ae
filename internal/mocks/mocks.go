// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"

	"commentary-ai/internal/types"

	"github.com/stretchr/testify/mock"
)

// MockVisionAnalyzer is a mock implementation of types.VisionAnalyzer
type MockVisionAnalyzer struct {
	mock.Mock
}

func (m *MockVisionAnalyzer) AnalyzeImage(ctx context.Context, imagePath string) (types.FrameAnalysis, error) {
	args := m.Called(ctx, imagePath)
	if args.Get(0) == nil {
		return types.FrameAnalysis{}, args.Error(1)
	}
	return args.Get(0).(types.FrameAnalysis), args.Error(1)
}

// MockChatCompleter is a mock implementation of types.ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

// MockTtser is a mock implementation of types.Ttser
type MockTtser struct {
	mock.Mock
}

func (m *MockTtser) Text2Speech(ctx context.Context, text, voice, outputFilePath string) (float64, error) {
	args := m.Called(ctx, text, voice, outputFilePath)
	return args.Get(0).(float64), args.Error(1)
}

// MockPublisher is a mock implementation of types.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, videoPath, title, description string) (string, error) {
	args := m.Called(ctx, videoPath, title, description)
	return args.String(0), args.Error(1)
}
