package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"project_waAgent/internal/entities"
)

func TestDetectBuiltinIntents(t *testing.T) {
	rules := entities.DefaultRules()

	tests := []struct {
		text string
		want []string
	}{
		{"Qual o valor do orçamento?", []string{"orcamento"}},
		{"quero comprar e pagar com pix", []string{"comprar", "financeiro"}},
		{"preciso falar com atendente urgente", []string{"comprar", "urgente", "atendente"}},
		{"bom dia", nil},
		{"", nil},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectIntents(tc.text, rules), "text: %q", tc.text)
	}
}

func TestDetectIntentsDeduplicates(t *testing.T) {
	rules := entities.DefaultRules()
	got := DetectIntents("valor valor valor", rules)
	assert.Equal(t, []string{"orcamento"}, got)
}

func TestCustomIntentRegex(t *testing.T) {
	rules := entities.DefaultRules()
	rules.Intents.Custom = []entities.CustomIntent{
		{Name: "plano_pro", Patterns: []string{`plano\s+pro`}},
	}

	got := DetectIntents("quero saber do Plano PRO", rules)
	assert.Contains(t, got, "plano_pro")
}

func TestCustomIntentInvalidRegexFallsBackToSubstring(t *testing.T) {
	rules := entities.DefaultRules()
	rules.Intents.Custom = []entities.CustomIntent{
		{Name: "promo", Patterns: []string{`promo(`}},
	}

	got := DetectIntents("tem PROMO( hoje?", rules)
	assert.Contains(t, got, "promo")
}
