package usecases

import (
	"regexp"
	"strings"

	"project_waAgent/internal/entities"
)

var menuShapeRe = regexp.MustCompile(`(^|\n)\s*\d+\s*[-\)\.]\s*`)

var operationalKeywords = []string{
	"digite",
	"menu",
	"opção",
	"opcao",
	"clique",
	"escolha",
	"envie no formato",
	"nome - telefone - assunto",
	"nome-telefone-assunto",
	"para prosseguir",
	"para continuar",
	"para avançar",
	"para avancar",
	"aguarde",
	"encaminhar",
}

// ShouldRewrite decides whether the generative rewrite may touch baseReply.
// Flow-control text (menus, handoff prompts, short operational messages) must
// reach the user verbatim; only free-text conversational replies are
// eligible. Returns the blocking reason for observability.
func ShouldRewrite(userText, baseReply string, state *entities.ConversationState, paused bool) (bool, string) {
	if paused {
		return false, "paused"
	}

	bt := normGuard(baseReply)
	ut := normGuard(userText)

	if bt == "" {
		return false, "empty_base_reply"
	}
	if strings.Contains(ut, "atendente") {
		return false, "user_requested_handoff"
	}

	if state != nil {
		if state.Step.InHandoff() {
			return false, "handoff_step:" + string(state.Step)
		}
		if state.Lead != nil && !state.LeadSaved {
			return false, "lead_capturing"
		}
	}

	if hasMenuShape(bt) {
		return false, "menu_shape_in_base_reply"
	}
	if looksOperational(bt) {
		return false, "operational_base_reply"
	}
	return true, "ok"
}

func hasMenuShape(text string) bool {
	if text == "" {
		return false
	}
	if menuShapeRe.MatchString(text) {
		return true
	}
	for _, k := range []string{"escolha uma opção", "escolha uma opcao", "digite o número", "digite o numero"} {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func looksOperational(text string) bool {
	if text == "" {
		return true
	}
	if len([]rune(text)) <= 45 {
		return true
	}
	for _, k := range operationalKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func normGuard(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
