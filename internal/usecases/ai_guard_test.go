package usecases

import (
	"testing"

	"project_waAgent/internal/entities"
)

func TestShouldRewriteBlocksWhenPaused(t *testing.T) {
	ok, reason := ShouldRewrite("oi", "uma resposta conversacional bem longa sobre nossos serviços e condições", nil, true)
	if ok || reason != "paused" {
		t.Fatalf("got ok=%v reason=%q", ok, reason)
	}
}

func TestShouldRewriteBlocksMenuShape(t *testing.T) {
	base := "Escolha abaixo para continuar com o seu atendimento personalizado:\n1 - Vendas\n2 - Suporte"
	ok, reason := ShouldRewrite("oi", base, nil, false)
	if ok || reason != "menu_shape_in_base_reply" {
		t.Fatalf("got ok=%v reason=%q", ok, reason)
	}
}

func TestShouldRewriteBlocksShortOperational(t *testing.T) {
	ok, reason := ShouldRewrite("oi", "Ok.", nil, false)
	if ok || reason != "operational_base_reply" {
		t.Fatalf("got ok=%v reason=%q", ok, reason)
	}
}

func TestShouldRewriteBlocksHandoffSteps(t *testing.T) {
	state := &entities.ConversationState{Step: entities.StepHandoffCollect}
	base := "Uma resposta conversacional longa o suficiente para não parecer mensagem de fluxo."
	ok, reason := ShouldRewrite("oi", base, state, false)
	if ok || reason != "handoff_step:handoff_collect" {
		t.Fatalf("got ok=%v reason=%q", ok, reason)
	}
}

func TestShouldRewriteBlocksUserHandoffRequest(t *testing.T) {
	base := "Uma resposta conversacional longa o suficiente para passar pelos outros filtros aqui."
	ok, reason := ShouldRewrite("quero falar com ATENDENTE", base, nil, false)
	if ok || reason != "user_requested_handoff" {
		t.Fatalf("got ok=%v reason=%q", ok, reason)
	}
}

func TestShouldRewriteBlocksFlowKeywords(t *testing.T) {
	base := "Para continuar, envie no formato solicitado e aguarde a confirmação do nosso time."
	ok, reason := ShouldRewrite("oi", base, nil, false)
	if ok || reason != "operational_base_reply" {
		t.Fatalf("got ok=%v reason=%q", ok, reason)
	}
}

func TestShouldRewriteAllowsConversationalReply(t *testing.T) {
	state := &entities.ConversationState{Step: entities.StepWelcome}
	base := "Nossos planos começam em R$ 99 por mês e incluem suporte dedicado com a nossa equipe."
	ok, reason := ShouldRewrite("quanto custa o plano básico?", base, state, false)
	if !ok || reason != "ok" {
		t.Fatalf("got ok=%v reason=%q", ok, reason)
	}
}
