package interfaces

import (
	"context"
	"errors"
	"time"

	"project_waAgent/internal/entities"
)

// ErrNotFound is returned by resolvers when no tenant matches. Expected on
// every webhook from an unconfigured instance; callers log and drop.
var ErrNotFound = errors.New("not found")

// Sender delivers outbound text through the agent's messaging gateway.
type Sender interface {
	SendText(ctx context.Context, agent *entities.Agent, number, text string) error
}

// AIClient is the generative rewrite/fallback provider. Both calls fail open:
// Rewrite returns baseReply unchanged on any provider failure, Fallback
// returns "" when disabled or failing so the deterministic template stands.
type AIClient interface {
	Rewrite(ctx context.Context, userText, baseReply, styleHint string) string
	Fallback(ctx context.Context, userText, styleHint string) string
}

// AgentResolver maps a wire-level instance to its tenant record.
type AgentResolver interface {
	GetByInstance(ctx context.Context, instance string) (*entities.Agent, error)
}

// RulesProvider serves parsed tenant rules. Reads reflect the latest write
// after Invalidate (replace-whole-value, no partial states).
type RulesProvider interface {
	Rules(ctx context.Context, agentID string) entities.TenantRules
	Invalidate(agentID string)
}

// LeadKey identifies the current lead row per logical contact.
type LeadKey struct {
	ClientID   string
	AgentID    string
	Instance   string
	FromNumber string
}

// LeadStore persists lead progression. All calls are idempotent upserts;
// they never duplicate rows per contact.
type LeadStore interface {
	EnsureFirstContact(ctx context.Context, key LeadKey) error
	MarkIntent(ctx context.Context, key LeadKey, intents []string) error
	SaveHandoffLead(ctx context.Context, key LeadKey, nome, telefone, assunto string) error
}

// StateStore holds per-conversation mutable state plus the message-id dedup
// set. Implementations must be safe under concurrent access; LockKey gives
// callers read-modify-write serialization per conversation.
type StateStore interface {
	GetState(key string) *entities.ConversationState
	SetState(key string, state *entities.ConversationState)
	ClearState(key string)
	Seen(messageID string) bool
	SetPaused(key string, d time.Duration)
	PauseForever(key string)
	ClearPaused(key string)
	IsPaused(key string) bool
	LockKey(key string) (unlock func())
}
