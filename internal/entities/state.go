package entities

import (
	"strings"
	"time"
)

// Step is the conversation state-machine label.
type Step string

const (
	StepNone           Step = ""
	StepWelcome        Step = "welcome"
	StepMenu           Step = "menu"
	StepHandoffCollect Step = "handoff_collect"
	StepLeadCaptured   Step = "lead_captured"
)

// MenuStep returns the step for a matched menu option key ("menu:<key>").
func MenuStep(key string) Step {
	return Step("menu:" + key)
}

// IsMenuOption reports whether s is a "menu:<key>" step.
func (s Step) IsMenuOption() bool {
	return strings.HasPrefix(string(s), "menu:")
}

// InHandoff reports whether the conversation already entered the handoff
// capture flow. The business-hours gate is bypassed for these steps.
func (s Step) InHandoff() bool {
	return s == StepHandoffCollect || s == StepLeadCaptured
}

// LeadDraft is the 3-field handoff form parsed from "Nome - Telefone - Assunto".
type LeadDraft struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
	Assunto  string `json:"assunto"`
}

// ConversationState is the mutable per-conversation state, keyed by
// (agent_id, sender). lead_saved is set at most once per captured lead;
// step == lead_captured implies Lead is present.
type ConversationState struct {
	Step          Step       `json:"step"`
	Lead          *LeadDraft `json:"lead,omitempty"`
	LeadSaved     bool       `json:"lead_saved"`
	PausedUntil   *time.Time `json:"paused_until,omitempty"`
	PausedForever bool       `json:"paused_forever"`
	LastMessageAt time.Time  `json:"last_message_at"`
}

// Reset clears the state machine back to a fresh conversation. Used by the
// explicit reactivation command; pause flags are cleared separately.
func (c *ConversationState) Reset() {
	c.Step = StepNone
	c.Lead = nil
	c.LeadSaved = false
}

// StateKey builds the conversation key. Legacy single-number keys are the
// agent-less form.
func StateKey(agentID, sender string) string {
	if agentID == "" {
		return sender
	}
	return agentID + "|" + sender
}
