package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project_waAgent/internal/entities"
)

func engineAt(hour, min int) *RulesEngine {
	e := NewRulesEngine()
	e.Now = func() time.Time {
		return time.Date(2026, 3, 10, hour, min, 0, 0, time.Local)
	}
	return e
}

func TestWelcomeOnFreshConversation(t *testing.T) {
	e := NewRulesEngine()
	state := &entities.ConversationState{}
	rules := entities.DefaultRules()

	reply := e.Apply("5511999990000", "oi", state, rules)

	assert.Equal(t, ReplyWelcome, reply.Kind)
	assert.Equal(t, rules.Messages.Welcome, reply.Text)
	assert.Equal(t, entities.StepWelcome, state.Step)
}

func TestFallbackAfterWelcome(t *testing.T) {
	e := NewRulesEngine()
	state := &entities.ConversationState{Step: entities.StepWelcome}
	rules := entities.DefaultRules()

	reply := e.Apply("5511999990000", "xyzzy", state, rules)

	assert.Equal(t, ReplyFallback, reply.Kind)
	assert.Equal(t, rules.Messages.Fallback, reply.Text)
}

func TestHandoffKeywordExactMatchOnly(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()

	state := &entities.ConversationState{}
	reply := e.Apply("x", "Atendente", state, rules)
	assert.Equal(t, ReplyHandoffPrompt, reply.Kind)
	assert.Equal(t, entities.StepHandoffCollect, state.Step)

	// a sentence containing the keyword is not the exact-match path
	state = &entities.ConversationState{Step: entities.StepWelcome}
	reply = e.Apply("x", "quero falar com atendente", state, rules)
	assert.NotEqual(t, ReplyHandoffPrompt, reply.Kind)
}

func TestHandoffKeywordIdempotent(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	state := &entities.ConversationState{}

	first := e.Apply("x", "atendente", state, rules)
	second := e.Apply("x", "atendente", state, rules)

	assert.Equal(t, first, second)
	assert.Equal(t, entities.StepHandoffCollect, state.Step)
}

func TestHandoffFormRoundTrip(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	state := &entities.ConversationState{Step: entities.StepHandoffCollect}

	reply := e.Apply("x", "Maria Silva - 11999999999 - Dúvida sobre preço", state, rules)

	require.Equal(t, ReplyHandoffOK, reply.Kind)
	require.NotNil(t, state.Lead)
	assert.Equal(t, "Maria Silva", state.Lead.Nome)
	assert.Equal(t, "11999999999", state.Lead.Telefone)
	assert.Equal(t, "Dúvida sobre preço", state.Lead.Assunto)
	assert.Equal(t, entities.StepLeadCaptured, state.Step)
	assert.Contains(t, reply.Text, "Maria Silva")
}

func TestHandoffFormExtraSeparatorsStayInSubject(t *testing.T) {
	e := NewRulesEngine()
	state := &entities.ConversationState{Step: entities.StepHandoffCollect}

	reply := e.Apply("x", "João - 11988887777 - Pedido 42 - urgente", state, entities.DefaultRules())

	require.Equal(t, ReplyHandoffOK, reply.Kind)
	assert.Equal(t, "Pedido 42 - urgente", state.Lead.Assunto)
}

func TestHandoffFormTooFewPartsRetries(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	state := &entities.ConversationState{Step: entities.StepHandoffCollect}

	reply := e.Apply("x", "só meu nome", state, rules)

	assert.Equal(t, ReplyHandoffRetry, reply.Kind)
	assert.Equal(t, entities.StepHandoffCollect, state.Step)
	assert.Nil(t, state.Lead)
}

func TestBusinessHoursGate(t *testing.T) {
	rules := entities.DefaultRules()
	rules.Hours.Mode = entities.HoursModeBusiness // 08:00-18:00 defaults

	state := &entities.ConversationState{Step: entities.StepWelcome}
	reply := engineAt(20, 0).Apply("x", "oi", state, rules)
	assert.Equal(t, ReplyOffHours, reply.Kind)

	reply = engineAt(9, 30).Apply("x", "oi", state, rules)
	assert.NotEqual(t, ReplyOffHours, reply.Kind)

	// boundary minutes are inside
	reply = engineAt(18, 0).Apply("x", "oi", state, rules)
	assert.NotEqual(t, ReplyOffHours, reply.Kind)
}

func TestBusinessHoursBypassedDuringHandoff(t *testing.T) {
	rules := entities.DefaultRules()
	rules.Hours.Mode = entities.HoursModeBusiness

	state := &entities.ConversationState{Step: entities.StepHandoffCollect}
	reply := engineAt(22, 0).Apply("x", "Ana - 1191234 - Suporte", state, rules)

	assert.Equal(t, ReplyHandoffOK, reply.Kind)
}

func TestBusinessHoursUnparseableFailsOpen(t *testing.T) {
	rules := entities.DefaultRules()
	rules.Hours.Mode = entities.HoursModeBusiness
	rules.Hours.Open = "bogus"

	state := &entities.ConversationState{Step: entities.StepWelcome}
	reply := engineAt(3, 0).Apply("x", "oi", state, rules)
	assert.NotEqual(t, ReplyOffHours, reply.Kind)
}

func TestMenuCommandShowsMenu(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	rules.Menu.Options = []entities.MenuOption{
		{Key: "1", Label: "Vendas", Reply: "Fale com vendas."},
		{Key: "2", Label: "Suporte", Reply: "Fale com suporte."},
	}
	state := &entities.ConversationState{Step: entities.StepWelcome}

	reply := e.Apply("x", "MENU", state, rules)

	assert.Equal(t, ReplyMenu, reply.Kind)
	assert.Contains(t, reply.Text, "*Menu*")
	assert.Contains(t, reply.Text, "1 - Vendas")
	assert.Equal(t, entities.StepMenu, state.Step)
}

func TestMenuOptionCaseInsensitiveExactKey(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	rules.Menu.Options = []entities.MenuOption{
		{Key: "precos", Label: "Preços", Reply: "Tabela de preços: ..."},
	}

	state := &entities.ConversationState{Step: entities.StepMenu}
	reply := e.Apply("x", "PRECOS", state, rules)
	assert.Equal(t, ReplyOption, reply.Kind)
	assert.Equal(t, entities.MenuStep("precos"), state.Step)

	// prefixes never match
	state = &entities.ConversationState{Step: entities.StepMenu}
	reply = e.Apply("x", "precos hoje", state, rules)
	assert.Equal(t, ReplyFallback, reply.Kind)
}

func TestMenuMapTokenIsCaseSensitive(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	rules.Menu.Map = map[string]string{"ROW_1": "Você escolheu a linha 1."}

	state := &entities.ConversationState{Step: entities.StepMenu}
	reply := e.Apply("x", "ROW_1", state, rules)
	assert.Equal(t, ReplyOption, reply.Kind)

	state = &entities.ConversationState{Step: entities.StepMenu}
	reply = e.Apply("x", "row_1", state, rules)
	assert.Equal(t, ReplyFallback, reply.Kind)
}

func TestMenuOptionMacros(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	rules.Menu.Options = []entities.MenuOption{
		{Key: "9", Label: "Voltar", Reply: entities.MacroShowMenu},
		{Key: "0", Label: "Atendente", Reply: entities.MacroHandoff},
	}

	state := &entities.ConversationState{Step: entities.StepMenu}
	reply := e.Apply("x", "9", state, rules)
	assert.Equal(t, ReplyMenu, reply.Kind)

	state = &entities.ConversationState{Step: entities.StepMenu}
	reply = e.Apply("x", "0", state, rules)
	assert.Equal(t, ReplyHandoffPrompt, reply.Kind)
	assert.Equal(t, entities.StepHandoffCollect, state.Step)
}

func TestUIMenuFallbackTextOverridesLayout(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	rules.UI.Menu.FallbackText = "Texto fixo do menu"

	state := &entities.ConversationState{}
	reply := e.Apply("x", "menu", state, rules)
	assert.Equal(t, "Texto fixo do menu", reply.Text)
}

func TestHandoffOKPlaceholderWithEmptyName(t *testing.T) {
	e := NewRulesEngine()
	rules := entities.DefaultRules()
	state := &entities.ConversationState{Step: entities.StepHandoffCollect}

	reply := e.Apply("x", " - 11999990000 - Assunto", state, rules)

	require.Equal(t, ReplyHandoffOK, reply.Kind)
	assert.Contains(t, reply.Text, "🙂")
}
