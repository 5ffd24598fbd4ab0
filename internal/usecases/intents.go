package usecases

import (
	"regexp"
	"strings"

	"project_waAgent/internal/entities"
)

// Built-in intents used for lead temperature labeling. Detection is a side
// channel only; it never drives state-machine transitions.
var builtinIntents = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"orcamento", regexp.MustCompile(`(?i)\b(orçamento|orcamento|valor|preço|preco|quanto custa|cotação|cotacao)\b`)},
	{"comprar", regexp.MustCompile(`(?i)\b(comprar|quero|preciso|contratar|fechar|adquirir)\b`)},
	{"agendamento", regexp.MustCompile(`(?i)\b(agendar|agendamento|marcar|hor[aá]rio dispon[ií]vel|reservar)\b`)},
	{"horario", regexp.MustCompile(`(?i)\b(que horas|horário de funcionamento|horario de funcionamento|abre|fecha|funcionamento)\b`)},
	{"endereco", regexp.MustCompile(`(?i)\b(endereço|endereco|onde fica|localização|localizacao|como chegar)\b`)},
	{"suporte", regexp.MustCompile(`(?i)\b(suporte|problema|erro|defeito|não funciona|nao funciona|ajuda)\b`)},
	{"status_pedido", regexp.MustCompile(`(?i)\b(pedido|rastreio|rastreamento|entrega|status do pedido)\b`)},
	{"financeiro", regexp.MustCompile(`(?i)\b(boleto|fatura|cobrança|cobranca|pagamento|pix|nota fiscal)\b`)},
	{"cancelamento", regexp.MustCompile(`(?i)\b(cancelar|cancelamento|desistir|reembolso|estorno)\b`)},
	{"urgente", regexp.MustCompile(`(?i)\b(urgente|pra hoje|agora|imediato|emergência|emergencia)\b`)},
	{"atendente", regexp.MustCompile(`(?i)\b(atendente|humano|pessoa|falar com alguém|falar com alguem)\b`)},
	{"transferencia", regexp.MustCompile(`(?i)\b(transfer(ê|e)ncia|transferir)\b`)},
}

// DetectIntents scans text for built-in and tenant-declared intents and
// returns the matched names, de-duplicated in insertion order. Invalid regex
// in a custom pattern degrades to case-insensitive substring match instead of
// failing the request.
func DetectIntents(text string, rules entities.TenantRules) []string {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	lower := strings.ToLower(t)

	var hits []string
	seen := map[string]bool{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		hits = append(hits, name)
	}

	for _, it := range builtinIntents {
		if it.pattern.MatchString(t) {
			add(it.name)
		}
	}

	for _, ci := range rules.Intents.Custom {
		for _, pat := range ci.Patterns {
			if pat == "" {
				continue
			}
			if matchPattern(pat, t, lower) {
				add(ci.Name)
				break
			}
		}
	}
	return hits
}

func matchPattern(pat, text, lowerText string) bool {
	re, err := regexp.Compile("(?i)" + pat)
	if err != nil {
		return strings.Contains(lowerText, strings.ToLower(pat))
	}
	return re.MatchString(text)
}
