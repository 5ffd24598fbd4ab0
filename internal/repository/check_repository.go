package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"project_waAgent/internal/entities"
)

type CheckRepository struct {
	db *pgxpool.Pool
}

func NewCheckRepository(db *pgxpool.Pool) *CheckRepository {
	return &CheckRepository{db: db}
}

func (r *CheckRepository) InsertAgentCheck(ctx context.Context, check *entities.AgentCheck) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO agent_checks (client_id, agent_id, instance, mode, status, latency_ms, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, nullIfEmpty(check.ClientID), check.AgentID, nullIfEmpty(check.Instance),
		check.Mode, check.Status, check.LatencyMS, nullIfEmpty(check.Error)).
		Scan(&check.ID, &check.CreatedAt)
}

// LatestChecks returns the most recent health observation per agent.
func (r *CheckRepository) LatestChecks(ctx context.Context) ([]entities.AgentCheck, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (agent_id)
			id, COALESCE(client_id, ''), agent_id, COALESCE(instance, ''),
			mode, status, latency_ms, COALESCE(error, ''), created_at
		FROM agent_checks
		ORDER BY agent_id, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checks := []entities.AgentCheck{}
	for rows.Next() {
		var c entities.AgentCheck
		if err := rows.Scan(&c.ID, &c.ClientID, &c.AgentID, &c.Instance,
			&c.Mode, &c.Status, &c.LatencyMS, &c.Error, &c.CreatedAt); err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}
