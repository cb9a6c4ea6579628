package service

import (
	"context"
)

// ChatMessage represents a single message sent to the language model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient is the language-model boundary. The OpenAI-compatible client
// implements it in production; tests substitute a scripted fake.
type ChatClient interface {
	// ChatCompletion sends the message list to the given model and returns
	// the assistant reply text.
	ChatCompletion(ctx context.Context, model string, messages []ChatMessage) (string, error)

	// CreateEmbeddings generates embeddings for texts
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// Ensure OpenAIClient implements ChatClient
var _ ChatClient = (*OpenAIClient)(nil)
