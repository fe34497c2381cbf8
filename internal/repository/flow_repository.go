package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"whatsflow/internal/entities"
)

// FlowRepository reads a team's keyword rules and welcome message
type FlowRepository struct {
	db *pgxpool.Pool
}

func NewFlowRepository(db *pgxpool.Pool) *FlowRepository {
	return &FlowRepository{db: db}
}

// GetFlowRules returns the team's keyword rules in table order, each joined
// to its owning chatbot's active flag.
func (r *FlowRepository) GetFlowRules(ctx context.Context, teamID int64) ([]entities.FlowRule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT f.id, f.chatbot_id, f.keyword, f.reply, COALESCE(f.media_url, ''), c.is_active
		FROM flows f
		JOIN chatbots c ON f.chatbot_id = c.id
		WHERE c.team_id = $1
		ORDER BY f.id
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []entities.FlowRule{}
	for rows.Next() {
		var rule entities.FlowRule
		if err := rows.Scan(&rule.ID, &rule.ChatbotID, &rule.Keyword, &rule.Reply, &rule.MediaURL, &rule.FlowActive); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// GetWelcome returns the team's welcome message. An absent row reads as an
// empty welcome (which the dispatcher treats as "send nothing").
func (r *FlowRepository) GetWelcome(ctx context.Context, teamID int64) (entities.Welcome, error) {
	var w entities.Welcome
	var mediaURL *string
	err := r.db.QueryRow(ctx,
		"SELECT reply, media_url FROM welcomes WHERE team_id = $1", teamID).Scan(&w.Text, &mediaURL)
	if err == pgx.ErrNoRows {
		return entities.Welcome{}, nil
	}
	if err != nil {
		return entities.Welcome{}, err
	}

	w.Text = strings.TrimSpace(w.Text)
	if mediaURL != nil {
		w.MediaURL = strings.TrimSpace(*mediaURL)
	}
	return w, nil
}
