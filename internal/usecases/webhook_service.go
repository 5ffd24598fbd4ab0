package usecases

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"project_waAgent/internal/entities"
	"project_waAgent/internal/infrastructure"
	"project_waAgent/internal/interfaces"
)

// RateLimiter bounds message processing per conversation key.
type RateLimiter interface {
	Allow(key string) bool
}

// lastSeenToucher is implemented by resolvers backed by the database.
type lastSeenToucher interface {
	TouchLastSeen(ctx context.Context, agentID string, at time.Time) error
}

// ProcessResult is the webhook response body. The endpoint always answers
// HTTP 200; Ignored carries the drop reason when the message produced no
// reply, and Sent reports whether outbound delivery succeeded.
type ProcessResult struct {
	OK      bool   `json:"ok"`
	Ignored string `json:"ignored,omitempty"`
	Sent    bool   `json:"sent"`
	Reply   string `json:"reply,omitempty"`
}

// WebhookService is the dispatch pipeline: normalize, filter, resolve the
// tenant, advance the rule engine, optionally polish with AI, persist lead
// side effects and send the reply.
type WebhookService struct {
	Agents  interfaces.AgentResolver
	Rules   interfaces.RulesProvider
	States  interfaces.StateStore
	Leads   interfaces.LeadStore
	Sender  interfaces.Sender
	AI      interfaces.AIClient
	Engine  *RulesEngine
	Limiter RateLimiter
}

func NewWebhookService(agents interfaces.AgentResolver, rules interfaces.RulesProvider,
	states interfaces.StateStore, leads interfaces.LeadStore, sender interfaces.Sender,
	ai interfaces.AIClient, engine *RulesEngine, limiter RateLimiter) *WebhookService {
	return &WebhookService{
		Agents:  agents,
		Rules:   rules,
		States:  states,
		Leads:   leads,
		Sender:  sender,
		AI:      ai,
		Engine:  engine,
		Limiter: limiter,
	}
}

func ignored(reason string) ProcessResult {
	infrastructure.WebhookIgnored.WithLabelValues(reason).Inc()
	return ProcessResult{OK: true, Ignored: reason}
}

// Process runs one webhook delivery through the pipeline. It never returns
// an error to the HTTP layer; every outcome is a 200 with a result body, so
// the gateway never retries a poison payload.
func (s *WebhookService) Process(ctx context.Context, raw []byte) ProcessResult {
	infrastructure.WebhookReceived.Inc()
	start := time.Now()
	defer func() {
		infrastructure.WebhookLatency.Observe(time.Since(start).Seconds())
	}()

	logger := log.With().Str("event_id", uuid.NewString()).Logger()

	msg, err := Normalize(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("webhook: undecodable body")
		return ignored("bad_json")
	}
	if msg.Instance == "" {
		return ignored("missing_instance")
	}
	logger = logger.With().Str("instance", msg.Instance).Logger()

	agent, err := s.Agents.GetByInstance(ctx, msg.Instance)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			logger.Error().Err(err).Msg("webhook: resolve agent")
		}
		return ignored("unknown_instance")
	}
	logger = logger.With().Str("agent_id", agent.ID).Str("client_id", agent.ClientID).Logger()

	if t, ok := s.Agents.(lastSeenToucher); ok {
		if err := t.TouchLastSeen(ctx, agent.ID, time.Now()); err != nil {
			logger.Warn().Err(err).Msg("webhook: touch last_seen")
		}
	}

	// Connection/presence updates carry no message.
	if msg.EventKind != "" && !strings.Contains(strings.ToLower(msg.EventKind), "message") {
		return ignored("update")
	}
	// Delivery receipts (ACK/READ etc) have a status and no text.
	if msg.Text == "" && msg.DeliveryStatus != "" {
		return ignored("status_no_text")
	}

	rules := s.Rules.Rules(ctx, agent.ID)
	key := entities.StateKey(agent.ID, msg.Sender)

	if strings.HasPrefix(strings.TrimSpace(msg.Text), "#") {
		return s.handleOperatorCommand(ctx, logger, agent, rules, key, msg)
	}

	if msg.IsFromSelf || msg.IsGroup {
		return ignored("from_me_or_group")
	}
	if s.States.Seen(msg.MessageID) {
		return ignored("dedup")
	}
	if msg.Sender == "" || strings.TrimSpace(msg.Text) == "" {
		return ignored("missing_number_or_text")
	}
	if s.Limiter != nil && !s.Limiter.Allow(key) {
		logger.Warn().Str("sender", msg.Sender).Msg("webhook: rate limited")
		return ignored("rate_limited")
	}
	if s.States.IsPaused(key) {
		return ignored("paused")
	}

	leadKey := interfaces.LeadKey{
		ClientID:   agent.ClientID,
		AgentID:    agent.ID,
		Instance:   agent.Instance,
		FromNumber: msg.Sender,
	}
	if err := s.Leads.EnsureFirstContact(ctx, leadKey); err != nil {
		logger.Warn().Err(err).Msg("webhook: ensure first contact")
	} else {
		infrastructure.LeadFirstContact.Inc()
	}
	if intents := DetectIntents(msg.Text, rules); len(intents) > 0 {
		if err := s.Leads.MarkIntent(ctx, leadKey, intents); err != nil {
			logger.Warn().Err(err).Msg("webhook: mark intent")
		} else {
			infrastructure.LeadIntentMarked.Inc()
		}
	}

	unlock := s.States.LockKey(key)
	state := s.States.GetState(key)

	reply := s.Engine.Apply(msg.Sender, msg.Text, state, rules)
	state.LastMessageAt = time.Now()

	finalText := s.polish(ctx, logger, msg.Text, reply, state, rules)

	if state.Step == entities.StepLeadCaptured && state.Lead != nil && !state.LeadSaved &&
		rules.Handoff.LeadCaptureEnabled() {
		err := s.Leads.SaveHandoffLead(ctx, leadKey,
			state.Lead.Nome, state.Lead.Telefone, state.Lead.Assunto)
		if err != nil {
			logger.Error().Err(err).Msg("webhook: save handoff lead")
		} else {
			state.LeadSaved = true
			infrastructure.LeadSaved.Inc()
			logger.Info().Str("sender", msg.Sender).Msg("handoff lead captured")
		}
	}

	s.States.SetState(key, state)
	unlock()

	infrastructure.MessagesProcessed.Inc()

	sent := true
	if err := s.Sender.SendText(ctx, agent, msg.Sender, finalText); err != nil {
		logger.Error().Err(err).Str("sender", msg.Sender).Msg("webhook: send reply")
		infrastructure.MessagesSentErr.Inc()
		sent = false
	} else {
		infrastructure.MessagesSentOK.Inc()
	}

	return ProcessResult{OK: true, Sent: sent, Reply: finalText}
}

// polish applies the optional generative layer on top of the deterministic
// reply: the fallback branch may be replaced wholesale, every other branch
// may only be rewritten when the gate allows it.
func (s *WebhookService) polish(ctx context.Context, logger zerolog.Logger,
	userText string, reply Reply, state *entities.ConversationState, rules entities.TenantRules) string {
	if s.AI == nil {
		return reply.Text
	}
	styleHint := styleHintFor(rules)

	if reply.Kind == ReplyFallback {
		if out := s.AI.Fallback(ctx, userText, styleHint); out != "" {
			return out
		}
		return reply.Text
	}

	allowed, reason := ShouldRewrite(userText, reply.Text, state, false)
	if !allowed {
		logger.Debug().Str("reason", reason).Msg("ai rewrite skipped")
		return reply.Text
	}
	return s.AI.Rewrite(ctx, userText, reply.Text, styleHint)
}

func styleHintFor(rules entities.TenantRules) string {
	if name := strings.TrimSpace(rules.Branding.Name); name != "" {
		return "Você atende em nome de " + name + "."
	}
	return ""
}

// handleOperatorCommand executes "#" control commands sent over the chat
// itself. Only the agent's own number (fromMe) or the numbers listed in
// rules.admin.numbers may use them.
func (s *WebhookService) handleOperatorCommand(ctx context.Context, logger zerolog.Logger,
	agent *entities.Agent, rules entities.TenantRules, key string, msg entities.InboundMessage) ProcessResult {

	if !msg.IsFromSelf && !isAdminNumber(rules, msg.Sender) {
		logger.Warn().Str("sender", msg.Sender).Msg("webhook: operator command from unauthorized number")
		return ignored("admin_unauthorized")
	}

	fields := strings.Fields(strings.TrimSpace(strings.ToLower(msg.Text)))
	var confirmation string

	switch fields[0] {
	case "#pausar":
		if len(fields) > 1 {
			min, err := strconv.Atoi(fields[1])
			if err != nil || min <= 0 {
				confirmation = "Uso: #pausar [minutos]"
				break
			}
			s.States.SetPaused(key, time.Duration(min)*time.Minute)
			confirmation = "⏸️ Bot pausado por " + strconv.Itoa(min) + " min nesta conversa."
		} else {
			s.States.PauseForever(key)
			confirmation = "⏸️ Bot pausado nesta conversa. Envie #reativar para voltar."
		}
	case "#reativar":
		s.States.ClearPaused(key)
		unlock := s.States.LockKey(key)
		state := s.States.GetState(key)
		state.Reset()
		s.States.SetState(key, state)
		unlock()
		confirmation = "✅ Bot reativado nesta conversa."
	default:
		confirmation = "Comandos: #pausar [min], #reativar"
	}

	logger.Info().Str("command", fields[0]).Str("sender", msg.Sender).Msg("operator command")

	sent := true
	if err := s.Sender.SendText(ctx, agent, msg.Sender, confirmation); err != nil {
		logger.Error().Err(err).Msg("webhook: send command confirmation")
		sent = false
	}
	return ProcessResult{OK: true, Sent: sent, Reply: confirmation}
}

func isAdminNumber(rules entities.TenantRules, sender string) bool {
	for _, n := range rules.Admin.Numbers {
		if n != "" && strings.TrimSpace(n) == sender {
			return true
		}
	}
	return false
}
