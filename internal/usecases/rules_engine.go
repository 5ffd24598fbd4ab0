package usecases

import (
	"strconv"
	"strings"
	"time"

	"project_waAgent/internal/entities"
)

// ReplyKind tags what the state machine decided, so the orchestrator and the
// AI gate never have to compare template strings to find out.
type ReplyKind int

const (
	ReplySilent ReplyKind = iota
	ReplyWelcome
	ReplyMenu
	ReplyOption
	ReplyHandoffPrompt
	ReplyHandoffRetry
	ReplyHandoffOK
	ReplyOffHours
	ReplyFallback
)

type Reply struct {
	Text string
	Kind ReplyKind
}

// RulesEngine advances the per-conversation state machine. It is pure except
// for the clock: Now is swappable for business-hours tests.
type RulesEngine struct {
	Now func() time.Time
}

func NewRulesEngine() *RulesEngine {
	return &RulesEngine{Now: time.Now}
}

// Apply computes the next state and the reply for one inbound text, mutating
// state in place. Priority order:
//  1. exact handoff keyword
//  2. business-hours gate (soft; bypassed once handoff capture began)
//  3. "menu"/"voltar" commands
//  4. handoff 3-field form parse
//  5. menu option / token map match (with reserved macros)
//  6. welcome on fresh conversation
//  7. fallback
func (e *RulesEngine) Apply(sender, text string, state *entities.ConversationState, rules entities.TenantRules) Reply {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)

	// The keyword check is an exact match on the whole message; "quero falar
	// com atendente" goes through intent detection instead, not this path.
	if lower == rules.Handoff.Keyword {
		return e.startHandoff(state, rules)
	}

	if !e.inBusinessHours(rules) && !state.Step.InHandoff() {
		return Reply{Text: rules.Messages.OffHours, Kind: ReplyOffHours}
	}

	if lower == "menu" || lower == "voltar" {
		state.Step = entities.StepMenu
		return Reply{Text: menuReply(rules), Kind: ReplyMenu}
	}

	if state.Step == entities.StepHandoffCollect {
		return e.collectHandoff(t, state, rules)
	}

	if opt, ok := matchMenuOption(rules, t); ok {
		return e.applyMenuOption(opt, state, rules)
	}

	if state.Step == entities.StepNone {
		state.Step = entities.StepWelcome
		return Reply{Text: rules.Messages.Welcome, Kind: ReplyWelcome}
	}

	return Reply{Text: rules.Messages.Fallback, Kind: ReplyFallback}
}

func (e *RulesEngine) startHandoff(state *entities.ConversationState, rules entities.TenantRules) Reply {
	state.Step = entities.StepHandoffCollect
	return Reply{Text: rules.Messages.HandoffPrompt, Kind: ReplyHandoffPrompt}
}

// collectHandoff parses "Nome - Telefone - Assunto". Fewer than 3 parts keeps
// the step and asks again; extra "-" separators stay inside the subject.
func (e *RulesEngine) collectHandoff(text string, state *entities.ConversationState, rules entities.TenantRules) Reply {
	parts := strings.Split(text, "-")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return Reply{Text: rules.Messages.HandoffRetry, Kind: ReplyHandoffRetry}
	}

	nome := parts[0]
	telefone := parts[1]
	assunto := strings.TrimSpace(strings.Join(parts[2:], "-"))

	state.Lead = &entities.LeadDraft{Nome: nome, Telefone: telefone, Assunto: assunto}
	state.Step = entities.StepLeadCaptured

	displayName := nome
	if displayName == "" {
		displayName = "🙂"
	}
	return Reply{
		Text: safeFormat(rules.Messages.HandoffOK, map[string]string{
			"nome":     displayName,
			"telefone": telefone,
			"assunto":  assunto,
		}),
		Kind: ReplyHandoffOK,
	}
}

func (e *RulesEngine) applyMenuOption(opt entities.MenuOption, state *entities.ConversationState, rules entities.TenantRules) Reply {
	reply := opt.Reply
	if reply == "" {
		reply = opt.Ask
	}
	if reply == "" {
		reply = "Ok."
	}

	switch reply {
	case entities.MacroShowMenu:
		state.Step = entities.StepMenu
		return Reply{Text: menuReply(rules), Kind: ReplyMenu}
	case entities.MacroHandoff:
		return e.startHandoff(state, rules)
	}

	state.Step = entities.MenuStep(opt.Key)
	return Reply{Text: reply, Kind: ReplyOption}
}

// matchMenuOption tries menu.options first (case-insensitive exact key), then
// the raw token map (selectedRowId/selectedButtonId values, case-sensitive).
// Keys never match by prefix or substring.
func matchMenuOption(rules entities.TenantRules, text string) (entities.MenuOption, bool) {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)

	for _, o := range rules.Menu.Options {
		k := strings.ToLower(strings.TrimSpace(o.Key))
		if k != "" && lower == k {
			return o, true
		}
	}
	if reply, ok := rules.Menu.Map[t]; ok {
		return entities.MenuOption{Key: t, Reply: reply}, true
	}
	return entities.MenuOption{}, false
}

// menuReply renders the option list. A configured ui.menu.fallback_text wins
// over the generated layout.
func menuReply(rules entities.TenantRules) string {
	if fb := strings.TrimSpace(rules.UI.Menu.FallbackText); fb != "" {
		return fb
	}

	var sb strings.Builder
	sb.WriteString("*" + rules.Menu.Title + "*")
	for _, o := range rules.Menu.Options {
		k := strings.TrimSpace(o.Key)
		label := strings.TrimSpace(o.Label)
		if k != "" && label != "" {
			sb.WriteString("\n" + k + " - " + label)
		}
	}
	sb.WriteString("\n\nDigite o número da opção ou *menu* para ver novamente.")
	return sb.String()
}

// inBusinessHours: open unless hours.mode == "business", in which case the
// local minute-of-day must fall inside [open, close] inclusive. Every day is
// treated alike; unparseable HH:MM values fail open.
func (e *RulesEngine) inBusinessHours(rules entities.TenantRules) bool {
	if strings.ToLower(rules.Hours.Mode) != entities.HoursModeBusiness {
		return true
	}

	openMin, okOpen := parseClock(rules.Hours.Open)
	closeMin, okClose := parseClock(rules.Hours.Close)
	if !okOpen || !okClose {
		return true
	}

	now := e.Now()
	nowMin := now.Hour()*60 + now.Minute()
	return openMin <= nowMin && nowMin <= closeMin
}

func parseClock(hhmm string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, false
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// safeFormat substitutes {placeholder} values; unknown placeholders in the
// template are left as-is rather than erroring.
func safeFormat(template string, vals map[string]string) string {
	out := template
	for k, v := range vals {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}
