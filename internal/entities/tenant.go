package entities

import (
	"encoding/json"
	"time"
)

// Agent statuses
const (
	AgentStatusActive   = "active"
	AgentStatusPending  = "pending"
	AgentStatusDisabled = "disabled"
)

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// Agent is one configured WhatsApp line belonging to a client account.
// Instance is the unique channel identifier the gateway routes by.
type Agent struct {
	ID               string          `json:"id"`
	ClientID         string          `json:"client_id"`
	Name             string          `json:"name"`
	Instance         string          `json:"instance"`
	EvolutionBaseURL string          `json:"evolution_base_url"`
	APIKey           string          `json:"-"`
	Status           string          `json:"status"`
	RulesJSON        json.RawMessage `json:"rules_json"`
	RulesUpdatedAt   time.Time       `json:"rules_updated_at"`
	LastSeenAt       *time.Time      `json:"last_seen_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// AgentCheck is one health observation of an agent's gateway,
// recorded by the background monitor ("poll") or the push endpoint ("push").
type AgentCheck struct {
	ID        int64     `json:"id"`
	ClientID  string    `json:"client_id"`
	AgentID   string    `json:"agent_id"`
	Instance  string    `json:"instance"`
	Mode      string    `json:"mode"` // poll | push
	Status    string    `json:"status"`
	LatencyMS *int      `json:"latency_ms,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Health statuses
const (
	CheckOnline   = "online"
	CheckDegraded = "degraded"
	CheckOffline  = "offline"
	CheckUnknown  = "unknown"
)

// User is an admin API account (JWT login).
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
