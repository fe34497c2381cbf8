package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Bot routing keys → teams
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bots (
			id SERIAL PRIMARY KEY,
			bot_key VARCHAR(64) UNIQUE NOT NULL,
			team_id BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create bots table: %w", err)
	}

	// Chatbot flows (owners of keyword rules)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chatbots (
			id SERIAL PRIMARY KEY,
			team_id BIGINT NOT NULL,
			name VARCHAR(100),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create chatbots table: %w", err)
	}

	// Keyword rules
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS flows (
			id SERIAL PRIMARY KEY,
			chatbot_id INT NOT NULL REFERENCES chatbots(id) ON DELETE CASCADE,
			keyword VARCHAR(100) NOT NULL,
			reply TEXT NOT NULL,
			media_url TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create flows table: %w", err)
	}

	// One-time welcome message per team
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS welcomes (
			team_id BIGINT PRIMARY KEY,
			reply TEXT NOT NULL DEFAULT '',
			media_url TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("create welcomes table: %w", err)
	}

	// Welcome/idle tracking per (contact, team)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contact_sessions (
			phone_number VARCHAR(32) NOT NULL,
			team_id BIGINT NOT NULL,
			received_welcome BOOLEAN NOT NULL DEFAULT FALSE,
			last_interaction TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (phone_number, team_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("create contact_sessions table: %w", err)
	}

	// AI enablement per team
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ai_configs (
			id SERIAL PRIMARY KEY,
			team_id BIGINT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create ai_configs table: %w", err)
	}

	// Prompt template fragments (business_info rows concatenate; bot_training
	// holds the placeholder template)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS prompts (
			id SERIAL PRIMARY KEY,
			ai_config_id INT REFERENCES ai_configs(id) ON DELETE CASCADE,
			prompt_type VARCHAR(50) NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create prompts table: %w", err)
	}

	// External service credentials
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS api_keys (
			service_name VARCHAR(64) PRIMARY KEY,
			api_key TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create api_keys table: %w", err)
	}

	// Portal operator accounts
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS operators (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create operators table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
