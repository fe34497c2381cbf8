package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository persists welcome/idle tracking per (contact, team)
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// HasReceivedWelcome reports whether the contact already got the one-time
// welcome. An absent row reads as false.
func (r *SessionRepository) HasReceivedWelcome(ctx context.Context, contact string, teamID int64) (bool, error) {
	var received bool
	err := r.db.QueryRow(ctx,
		"SELECT received_welcome FROM contact_sessions WHERE phone_number = $1 AND team_id = $2",
		contact, teamID).Scan(&received)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return received, nil
}

// MarkWelcomed upserts the session with received_welcome=true and a fresh
// last_interaction. Idempotent.
func (r *SessionRepository) MarkWelcomed(ctx context.Context, contact string, teamID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO contact_sessions (phone_number, team_id, received_welcome, last_interaction)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT (phone_number, team_id)
		DO UPDATE SET received_welcome = TRUE, last_interaction = NOW()
	`, contact, teamID)
	return err
}

// Touch refreshes last_interaction without altering the welcome flag
func (r *SessionRepository) Touch(ctx context.Context, contact string, teamID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO contact_sessions (phone_number, team_id, received_welcome, last_interaction)
		VALUES ($1, $2, FALSE, NOW())
		ON CONFLICT (phone_number, team_id)
		DO UPDATE SET last_interaction = NOW()
	`, contact, teamID)
	return err
}

// DeleteExpired removes sessions whose last_interaction is strictly older
// than cutoff and returns the affected contacts. Rows exactly at the cutoff
// are retained.
func (r *SessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx,
		"DELETE FROM contact_sessions WHERE last_interaction < $1 RETURNING phone_number", cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []string{}
	for rows.Next() {
		var contact string
		if err := rows.Scan(&contact); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}
