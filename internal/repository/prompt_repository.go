package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Prompt fragment types
const (
	PromptBusinessInfo = "business_info"
	PromptBotTraining  = "bot_training"
)

// PromptRepository reads AI prompt fragments, AI enablement and credentials
type PromptRepository struct {
	db *pgxpool.Pool
}

func NewPromptRepository(db *pgxpool.Pool) *PromptRepository {
	return &PromptRepository{db: db}
}

// FetchPrompt returns all fragments of a type joined with newlines.
// A type with no rows is a hard error: an incomplete system prompt would
// produce an incoherent reply.
func (r *PromptRepository) FetchPrompt(ctx context.Context, promptType string) (string, error) {
	rows, err := r.db.Query(ctx,
		"SELECT content FROM prompts WHERE prompt_type = $1 ORDER BY id", promptType)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var fragments []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", err
		}
		fragments = append(fragments, content)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if len(fragments) == 0 {
		return "", fmt.Errorf("prompt type %s not found", promptType)
	}
	return strings.Join(fragments, "\n"), nil
}

// HasActiveAI reports whether any AI configuration with prompts is active
// for the team.
func (r *PromptRepository) HasActiveAI(ctx context.Context, teamID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM prompts p
			JOIN ai_configs a ON p.ai_config_id = a.id
			WHERE a.is_active AND a.team_id = $1
		)
	`, teamID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetAPIKey returns the stored credential for a service, or "" when absent
func (r *PromptRepository) GetAPIKey(ctx context.Context, serviceName string) (string, error) {
	var key string
	err := r.db.QueryRow(ctx,
		"SELECT api_key FROM api_keys WHERE service_name = $1", serviceName).Scan(&key)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return key, nil
}
