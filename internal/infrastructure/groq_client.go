package infrastructure

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"whatsflow/internal/entities"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama3-8b-8192"
)

// Fixed sampling parameters for customer-facing replies
const (
	completionTemperature      = 0.7
	completionMaxTokens        = 200
	completionTopP             = 1.0
	completionFrequencyPenalty = 0.5
	completionPresencePenalty  = 0.3
)

// GroqClient talks to Groq's OpenAI-compatible chat completion endpoint
type GroqClient struct {
	llm   *openai.LLM
	model string
}

// NewGroqClient builds a completion client. baseURL and model fall back to
// the Groq defaults when empty.
func NewGroqClient(apiKey, baseURL, model string) (*GroqClient, error) {
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	if model == "" {
		model = defaultGroqModel
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("init completion client: %w", err)
	}

	return &GroqClient{llm: llm, model: model}, nil
}

// Complete sends the system prompt plus ordered turn history and returns the
// top completion's text verbatim.
func (g *GroqClient) Complete(ctx context.Context, systemPrompt string, history []entities.Turn) (string, error) {
	content := make([]llms.MessageContent, 0, len(history)+1)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))

	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == entities.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, turn.Content))
	}

	resp, err := g.llm.GenerateContent(ctx, content,
		llms.WithTemperature(completionTemperature),
		llms.WithMaxTokens(completionMaxTokens),
		llms.WithTopP(completionTopP),
		llms.WithFrequencyPenalty(completionFrequencyPenalty),
		llms.WithPresencePenalty(completionPresencePenalty),
	)
	if err != nil {
		return "", fmt.Errorf("completion call (%s): %w", g.model, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}
