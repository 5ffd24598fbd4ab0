package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"project_waAgent/internal/entities"
	"project_waAgent/internal/interfaces"
)

// LeadBackup receives a copy of every captured handoff lead. Optional.
type LeadBackup interface {
	Append(lead *entities.Lead) error
}

// LeadRepository keeps one lead row per contact, keyed by
// (client_id, instance, from_number). All writes are idempotent upserts.
type LeadRepository struct {
	db     *pgxpool.Pool
	backup LeadBackup
}

func NewLeadRepository(db *pgxpool.Pool, backup LeadBackup) *LeadRepository {
	return &LeadRepository{db: db, backup: backup}
}

// EnsureFirstContact inserts the contact's row if it does not exist yet.
// An existing row is left untouched, whatever its status.
func (r *LeadRepository) EnsureFirstContact(ctx context.Context, key interfaces.LeadKey) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO leads (client_id, agent_id, instance, from_number, status, origem)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (client_id, instance, from_number) DO NOTHING
	`, key.ClientID, nullIfEmpty(key.AgentID), key.Instance, key.FromNumber,
		entities.LeadStatusFirstContact, entities.LeadOriginWhatsApp)
	return err
}

// MarkIntent records detected intents and promotes the lead to lead_quente.
// A lead already waiting for a human is never downgraded.
func (r *LeadRepository) MarkIntent(ctx context.Context, key interfaces.LeadKey, intents []string) error {
	if len(intents) == 0 {
		return nil
	}
	if err := r.EnsureFirstContact(ctx, key); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE leads SET
			intent_detected = $4,
			origem = CASE WHEN origem = $5 THEN $6 ELSE origem END,
			status = CASE WHEN status = $7 THEN status ELSE $8 END,
			updated_at = NOW()
		WHERE client_id = $1 AND instance = $2 AND from_number = $3
	`, key.ClientID, key.Instance, key.FromNumber,
		strings.Join(intents, ","),
		entities.LeadOriginWhatsApp, entities.LeadOriginIntent,
		entities.LeadStatusWaitingAgent, entities.LeadStatusHot)
	return err
}

// SaveHandoffLead stores the captured contact form and flags the lead as
// waiting for a human.
func (r *LeadRepository) SaveHandoffLead(ctx context.Context, key interfaces.LeadKey, nome, telefone, assunto string) error {
	if err := r.EnsureFirstContact(ctx, key); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE leads SET
			nome = $4, telefone = $5, assunto = $6,
			status = $7, origem = $8, lead_saved = TRUE,
			updated_at = NOW()
		WHERE client_id = $1 AND instance = $2 AND from_number = $3
	`, key.ClientID, key.Instance, key.FromNumber,
		nome, telefone, assunto,
		entities.LeadStatusWaitingAgent, entities.LeadOriginHandoffForm)
	if err != nil {
		return err
	}

	if r.backup != nil {
		lead := &entities.Lead{
			ClientID:   key.ClientID,
			AgentID:    key.AgentID,
			Instance:   key.Instance,
			FromNumber: key.FromNumber,
			Nome:       nome,
			Telefone:   telefone,
			Assunto:    assunto,
			Status:     entities.LeadStatusWaitingAgent,
			Origem:     entities.LeadOriginHandoffForm,
		}
		if err := r.backup.Append(lead); err != nil {
			log.Warn().Err(err).Msg("lead backup append failed")
		}
	}
	return nil
}

// GetLastLeads returns the newest leads for a client, most recent first.
func (r *LeadRepository) GetLastLeads(ctx context.Context, clientID string, limit int) ([]entities.Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, client_id, COALESCE(agent_id, ''), instance, from_number,
			COALESCE(nome, ''), COALESCE(telefone, ''), COALESCE(assunto, ''),
			status, origem, COALESCE(intent_detected, ''),
			first_seen_at, created_at, updated_at, lead_saved
		FROM leads
		WHERE client_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []entities.Lead{}
	for rows.Next() {
		var l entities.Lead
		if err := rows.Scan(&l.ID, &l.ClientID, &l.AgentID, &l.Instance, &l.FromNumber,
			&l.Nome, &l.Telefone, &l.Assunto,
			&l.Status, &l.Origem, &l.IntentDetected,
			&l.FirstSeenAt, &l.CreatedAt, &l.UpdatedAt, &l.LeadSaved); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
