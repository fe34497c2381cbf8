package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BotRepository resolves the fixed bot routing key to a team
type BotRepository struct {
	db *pgxpool.Pool
}

func NewBotRepository(db *pgxpool.Pool) *BotRepository {
	return &BotRepository{db: db}
}

// ResolveTeamID returns the team bound to a bot key, or 0 when the key is
// not configured.
func (r *BotRepository) ResolveTeamID(ctx context.Context, botKey string) (int64, error) {
	var teamID int64
	err := r.db.QueryRow(ctx,
		"SELECT team_id FROM bots WHERE bot_key = $1", botKey).Scan(&teamID)
	if err == pgx.ErrNoRows {
		return 0, nil // Not found
	}
	if err != nil {
		return 0, err
	}
	return teamID, nil
}
