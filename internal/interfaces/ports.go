package interfaces

import (
	"context"

	"whatsflow/internal/entities"
)

// Messenger sends outbound messages on the chat transport
type Messenger interface {
	SendMessage(to, content string) error
	SendMediaMessage(to, content, mediaURL string) error
}

// CompletionClient is the AI backend: one system prompt plus ordered turns in,
// one completion text out.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt string, history []entities.Turn) (string, error)
}
