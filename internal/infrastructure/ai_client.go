package infrastructure

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"
)

// AI operating modes. AI_MODE may combine them ("assistive,fallback").
const (
	AIModeAssistive = "assistive"
	AIModeFallback  = "fallback"
)

// OpenAIClient wraps the generative provider for the assistive rewrite and
// the fallback reply. Both paths fail open: a provider error never reaches
// the webhook response, the deterministic reply simply stands.
type OpenAIClient struct {
	client    openai.Client
	model     string
	modes     map[string]bool
	enabled   bool
	timeout   time.Duration
	maxTokens int64
}

func NewOpenAIClient(apiKey, model, mode string, enabled bool, timeout time.Duration, maxTokens int64) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxTokens <= 0 {
		maxTokens = 220
	}

	modes := map[string]bool{}
	for _, p := range strings.Split(mode, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			modes[p] = true
		}
	}

	return &OpenAIClient{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		modes:     modes,
		enabled:   enabled && apiKey != "",
		timeout:   timeout,
		maxTokens: maxTokens,
	}
}

// Rewrite asks the model to polish baseReply without changing its meaning.
// Returns baseReply unchanged when disabled, on error, or on empty output.
func (c *OpenAIClient) Rewrite(ctx context.Context, userText, baseReply, styleHint string) string {
	if !c.enabled || !c.modes[AIModeAssistive] {
		return baseReply
	}

	sys := "Você melhora a qualidade de mensagens de atendimento no WhatsApp.\n" +
		styleHint + "\n" +
		"Regras:\n" +
		"- Não invente informações.\n" +
		"- Não mude o sentido.\n" +
		"- Não comente sobre a tarefa nem use aspas em volta da resposta.\n" +
		"- Seja curto (até 5 linhas).\n" +
		"- Use português do Brasil.\n"
	user := "Mensagem do cliente:\n" + userText + "\n\nResposta base:\n" + baseReply + "\n\nReescreva melhor:"

	out := c.complete(ctx, sys, user)
	if out == "" {
		return baseReply
	}
	return out
}

// Fallback generates a reply when the rules engine hit its fallback branch.
// Returns "" (never a fabricated placeholder) when disabled or failing, so
// the deterministic fallback template stays in force.
func (c *OpenAIClient) Fallback(ctx context.Context, userText, styleHint string) string {
	if !c.enabled || !c.modes[AIModeFallback] {
		return ""
	}

	sys := "Você é um atendente de WhatsApp. Ajude o cliente com base no contexto.\n" +
		styleHint + "\n" +
		"Regras:\n" +
		"- Seja direto e educado.\n" +
		"- Se não tiver informação suficiente, faça 1 pergunta objetiva.\n" +
		"- Sempre ofereça a opção de falar com atendente humano digitando 'atendente'.\n" +
		"- Máximo 6 linhas.\n"
	user := "Cliente disse: " + userText + "\nResponda agora:"

	return c.complete(ctx, sys, user)
}

func (c *OpenAIClient) complete(ctx context.Context, sys, user string) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(sys),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		log.Warn().Err(err).Msg("ai provider call failed")
		return ""
	}
	if len(resp.Choices) == 0 {
		return ""
	}
	return CleanAIOutput(resp.Choices[0].Message.Content)
}

var metaPrefixes = []string{
	"aqui está uma versão melhorada:",
	"aqui está uma versão melhor:",
	"aqui está a resposta:",
	"aqui está:",
	"versão melhorada:",
	"resposta melhorada:",
	"here is an improved version:",
	"here is the improved version:",
	"here is the response:",
	"sure, here it is:",
}

// CleanAIOutput strips residual meta-commentary prefixes and surrounding
// quote characters that models sometimes emit despite instructions.
func CleanAIOutput(s string) string {
	out := strings.TrimSpace(s)
	lower := strings.ToLower(out)
	for _, p := range metaPrefixes {
		if strings.HasPrefix(lower, p) {
			out = strings.TrimSpace(out[len(p):])
			lower = strings.ToLower(out)
		}
	}
	for {
		trimmed := stripQuotePair(out)
		if trimmed == out {
			return out
		}
		out = trimmed
	}
}

func stripQuotePair(s string) string {
	pairs := [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}, {"‘", "’"}}
	for _, p := range pairs {
		if len(s) > len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
			return strings.TrimSpace(s[len(p[0]) : len(s)-len(p[1])])
		}
	}
	return s
}
