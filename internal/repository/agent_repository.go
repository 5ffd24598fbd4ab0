package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"project_waAgent/internal/entities"
	"project_waAgent/internal/interfaces"
)

type AgentRepository struct {
	db *pgxpool.Pool
}

func NewAgentRepository(db *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: db}
}

const agentColumns = `id, client_id, name, instance, COALESCE(evolution_base_url, ''),
	COALESCE(api_key, ''), status, rules_json, rules_updated_at, last_seen_at, created_at`

func scanAgent(row pgx.Row) (*entities.Agent, error) {
	var a entities.Agent
	err := row.Scan(&a.ID, &a.ClientID, &a.Name, &a.Instance, &a.EvolutionBaseURL,
		&a.APIKey, &a.Status, &a.RulesJSON, &a.RulesUpdatedAt, &a.LastSeenAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByInstance resolves the agent owning a gateway instance name.
// Returns interfaces.ErrNotFound for unconfigured instances.
func (r *AgentRepository) GetByInstance(ctx context.Context, instance string) (*entities.Agent, error) {
	agent, err := scanAgent(r.db.QueryRow(ctx,
		"SELECT "+agentColumns+" FROM agents WHERE instance = $1", instance))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (r *AgentRepository) GetByID(ctx context.Context, id string) (*entities.Agent, error) {
	agent, err := scanAgent(r.db.QueryRow(ctx,
		"SELECT "+agentColumns+" FROM agents WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (r *AgentRepository) ListAgents(ctx context.Context) ([]entities.Agent, error) {
	rows, err := r.db.Query(ctx, "SELECT "+agentColumns+" FROM agents ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := []entities.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// GetRulesJSON returns the raw rules document for one agent.
func (r *AgentRepository) GetRulesJSON(ctx context.Context, agentID string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := r.db.QueryRow(ctx,
		"SELECT rules_json FROM agents WHERE id = $1", agentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// UpdateRules replaces the whole rules document and bumps rules_updated_at.
func (r *AgentRepository) UpdateRules(ctx context.Context, agentID string, rules json.RawMessage) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE agents SET rules_json = $1, rules_updated_at = NOW() WHERE id = $2",
		rules, agentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// TouchLastSeen records webhook activity for an agent. Best effort.
func (r *AgentRepository) TouchLastSeen(ctx context.Context, agentID string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE agents SET last_seen_at = $1 WHERE id = $2", at, agentID)
	return err
}
