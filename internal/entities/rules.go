package entities

import (
	"encoding/json"
	"strings"
)

// Reserved reply macros usable in menu options / menu.map values.
const (
	MacroShowMenu = "__SHOW_MENU__"
	MacroHandoff  = "__HANDOFF__"
)

// Hours modes
const HoursModeBusiness = "business"

// TenantRules is the per-agent configuration document (agents.rules_json),
// decoded once with defaults applied at load time. Unknown JSON keys are
// ignored so the schema stays forward-compatible.
type TenantRules struct {
	Hours    HoursRules       `json:"hours"`
	Handoff  HandoffRules     `json:"handoff"`
	Menu     MenuRules        `json:"menu"`
	Messages MessageTemplates `json:"messages"`
	Intents  IntentRules      `json:"intents"`
	Admin    AdminRules       `json:"admin"`
	Branding BrandingRules    `json:"branding"`
	UI       UIRules          `json:"ui"`
}

type HoursRules struct {
	Mode  string `json:"mode"`  // "business" gates replies to open..close
	Open  string `json:"open"`  // "HH:MM"
	Close string `json:"close"` // "HH:MM"
}

type HandoffRules struct {
	Keyword     string `json:"keyword"`
	CaptureLead *bool  `json:"capture_lead"` // nil = enabled
}

// LeadCaptureEnabled reports whether the 3-field handoff form should be
// persisted as a lead. Defaults to true when unset.
func (h HandoffRules) LeadCaptureEnabled() bool {
	return h.CaptureLead == nil || *h.CaptureLead
}

type MenuOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Reply string `json:"reply"`
	Ask   string `json:"ask"`
}

type MenuRules struct {
	Title   string            `json:"title"`
	Options []MenuOption      `json:"options"`
	Map     map[string]string `json:"map"` // raw token (rowId/buttonId) -> reply
}

type MessageTemplates struct {
	Welcome       string `json:"welcome"`
	Fallback      string `json:"fallback"`
	OffHours      string `json:"off_hours"`
	HandoffPrompt string `json:"handoff_prompt"`
	HandoffOK     string `json:"handoff_ok"`
	HandoffRetry  string `json:"handoff_retry"`
}

type CustomIntent struct {
	Name     string   `json:"name"`
	Patterns []string `json:"patterns"`
}

type IntentRules struct {
	Custom []CustomIntent `json:"custom"`
}

// AdminRules lists sender numbers allowed to issue "#" control commands
// over the webhook besides the agent's own number.
type AdminRules struct {
	Numbers []string `json:"numbers"`
}

type BrandingRules struct {
	Name string `json:"name"`
}

type UIRules struct {
	Menu UIMenuRules `json:"menu"`
}

type UIMenuRules struct {
	FallbackText string `json:"fallback_text"` // overrides the rendered menu
}

// DefaultRules returns a fully functional default bot configuration.
func DefaultRules() TenantRules {
	r := TenantRules{}
	r.applyDefaults()
	return r
}

// ParseRules decodes a tenant rules document, degrading to defaults on any
// malformed input. A broken config value must never reject the tenant's
// traffic.
func ParseRules(raw json.RawMessage) TenantRules {
	var r TenantRules
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &r); err != nil {
			r = TenantRules{}
		}
	}
	r.applyDefaults()
	return r
}

func (r *TenantRules) applyDefaults() {
	if strings.TrimSpace(r.Handoff.Keyword) == "" {
		r.Handoff.Keyword = "atendente"
	}
	r.Handoff.Keyword = strings.ToLower(strings.TrimSpace(r.Handoff.Keyword))

	if r.Hours.Open == "" {
		r.Hours.Open = "08:00"
	}
	if r.Hours.Close == "" {
		r.Hours.Close = "18:00"
	}

	if r.Menu.Title == "" {
		r.Menu.Title = "Menu"
	}

	m := &r.Messages
	if m.Welcome == "" {
		m.Welcome = "Olá! Digite *menu* para ver opções."
	}
	if m.Fallback == "" {
		m.Fallback = "Não entendi. Digite *menu* para ver opções."
	}
	if m.OffHours == "" {
		m.OffHours = "Estamos fora do horário agora 🙂. Se quiser atendimento, digite *atendente*."
	}
	if m.HandoffPrompt == "" {
		m.HandoffPrompt = "Perfeito! Para encaminhar para um atendente, envie:\n*Nome* - *Telefone* - *Assunto*"
	}
	if m.HandoffOK == "" {
		m.HandoffOK = "Obrigado, {nome}! ✅ Recebemos suas informações e um atendente vai falar com você em breve."
	}
	if m.HandoffRetry == "" {
		m.HandoffRetry = "Não consegui entender. Envie no formato:\n*Nome* - *Telefone* - *Assunto*"
	}
}
