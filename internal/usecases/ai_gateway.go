package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"whatsflow/internal/entities"
	"whatsflow/internal/interfaces"
	"whatsflow/internal/repository"
)

// GroqServiceName is the api_keys row holding the completion credential
const GroqServiceName = "groq"

// PromptSource supplies prompt fragments, AI enablement and credentials
type PromptSource interface {
	FetchPrompt(ctx context.Context, promptType string) (string, error)
	HasActiveAI(ctx context.Context, teamID int64) (bool, error)
	GetAPIKey(ctx context.Context, serviceName string) (string, error)
}

// CompletionFactory builds the backend client once the credential is known
type CompletionFactory func(apiKey string) (interfaces.CompletionClient, error)

// AIGateway wraps the completion backend: lazy once-per-process credential
// initialization, tenant enablement check and system-prompt assembly.
type AIGateway struct {
	prompts PromptSource
	factory CompletionFactory

	mu     sync.Mutex
	client interfaces.CompletionClient
}

func NewAIGateway(prompts PromptSource, factory CompletionFactory) *AIGateway {
	return &AIGateway{prompts: prompts, factory: factory}
}

// ensureClient initializes the backend client on first use. Failure to
// obtain a credential is logged and leaves the gateway not-ready; the next
// call tries again.
func (g *AIGateway) ensureClient(ctx context.Context) interfaces.CompletionClient {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client
	}

	key, err := g.prompts.GetAPIKey(ctx, GroqServiceName)
	if err != nil {
		fmt.Printf("[ai] obtaining API key: %v\n", err)
		return nil
	}
	if key == "" {
		fmt.Printf("[ai] API key not found for service %s\n", GroqServiceName)
		return nil
	}

	client, err := g.factory(key)
	if err != nil {
		fmt.Printf("[ai] initializing completion client: %v\n", err)
		return nil
	}
	g.client = client
	return client
}

// Enabled reports whether the team has an active AI configuration.
// Lookup failures read as disabled.
func (g *AIGateway) Enabled(ctx context.Context, teamID int64) bool {
	active, err := g.prompts.HasActiveAI(ctx, teamID)
	if err != nil {
		fmt.Printf("[ai] enablement check for team %d: %v\n", teamID, err)
		return false
	}
	return active
}

// Respond sends the turn history to the completion backend and returns the
// reply text. Empty means "say nothing" (gateway not ready or AI disabled).
// A missing prompt template is a hard error for this call.
func (g *AIGateway) Respond(ctx context.Context, teamID int64, history []entities.Turn, displayName string) (string, error) {
	client := g.ensureClient(ctx)
	if client == nil {
		return "", nil
	}

	if !g.Enabled(ctx, teamID) {
		return "", nil
	}

	prompt, err := g.buildPrompt(ctx, displayName)
	if err != nil {
		return "", err
	}

	return client.Complete(ctx, prompt, history)
}

// buildPrompt assembles the system prompt: the training template with the
// customer-name and business-context placeholders substituted. Rebuilt per
// call; templates are not cached.
func (g *AIGateway) buildPrompt(ctx context.Context, displayName string) (string, error) {
	businessInfo, err := g.prompts.FetchPrompt(ctx, repository.PromptBusinessInfo)
	if err != nil {
		return "", fmt.Errorf("assemble prompt: %w", err)
	}

	template, err := g.prompts.FetchPrompt(ctx, repository.PromptBotTraining)
	if err != nil {
		return "", fmt.Errorf("assemble prompt: %w", err)
	}

	prompt := strings.ReplaceAll(template, "{customer_name}", displayName)
	prompt = strings.ReplaceAll(prompt, "{context}", businessInfo)
	return prompt, nil
}
