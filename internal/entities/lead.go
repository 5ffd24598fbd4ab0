package entities

import "time"

// Lead statuses, in temperature order. MarkIntent never downgrades a lead
// that already reached the handoff stage.
const (
	LeadStatusFirstContact = "primeiro_contato"
	LeadStatusHot          = "lead_quente"
	LeadStatusWaitingAgent = "aguardando_atendente"
)

// Lead origins
const (
	LeadOriginWhatsApp    = "whatsapp"
	LeadOriginIntent      = "intencao"
	LeadOriginHandoffForm = "handoff_form"
)

// Lead is the current row per logical contact, keyed by
// (client_id, agent_id?, instance, from_number). Most-recent-row-wins;
// the core only creates-if-absent or updates in place, never deletes.
type Lead struct {
	ID             int64     `json:"id"`
	ClientID       string    `json:"client_id"`
	AgentID        string    `json:"agent_id,omitempty"`
	Instance       string    `json:"instance"`
	FromNumber     string    `json:"from_number"`
	Nome           string    `json:"nome,omitempty"`
	Telefone       string    `json:"telefone,omitempty"`
	Assunto        string    `json:"assunto,omitempty"`
	Status         string    `json:"status"`
	Origem         string    `json:"origem"`
	IntentDetected string    `json:"intent_detected,omitempty"`
	FirstSeenAt    time.Time `json:"first_seen_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LeadSaved      bool      `json:"lead_saved"`
}
