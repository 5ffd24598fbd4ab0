package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"project_waAgent/internal/entities"
)

// EvolutionClient sends outbound text through the Evolution API gateway.
// Every agent carries its own base URL, instance and api key; the env-level
// defaults only back legacy single-tenant setups.
type EvolutionClient struct {
	http        *http.Client
	limiterSend *rate.Limiter

	// defaults (legacy compat); per-agent values win
	defaultBaseURL string
	defaultAPIKey  string
}

func NewEvolutionClient(defaultBaseURL, defaultAPIKey string, timeout time.Duration) *EvolutionClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &EvolutionClient{
		http:           &http.Client{Timeout: timeout},
		limiterSend:    rate.NewLimiter(rate.Limit(10), 20),
		defaultBaseURL: strings.TrimRight(strings.TrimSpace(defaultBaseURL), "/"),
		defaultAPIKey:  strings.TrimSpace(defaultAPIKey),
	}
}

// SendText posts a text message to the gateway for the agent's instance.
// A non-2xx response or transport error is returned to the caller, which
// reports sent=false without failing the webhook.
func (c *EvolutionClient) SendText(ctx context.Context, agent *entities.Agent, number, text string) error {
	base := strings.TrimRight(strings.TrimSpace(agent.EvolutionBaseURL), "/")
	if base == "" {
		base = c.defaultBaseURL
	}
	apiKey := strings.TrimSpace(agent.APIKey)
	if apiKey == "" {
		apiKey = c.defaultAPIKey
	}
	instance := strings.TrimSpace(agent.Instance)

	if base == "" || !strings.HasPrefix(base, "http") {
		return fmt.Errorf("evolution base_url missing or invalid for agent %s", agent.ID)
	}
	if instance == "" {
		return fmt.Errorf("evolution instance missing for agent %s", agent.ID)
	}
	if apiKey == "" {
		return fmt.Errorf("evolution api_key missing for agent %s", agent.ID)
	}

	if err := c.limiterSend.Wait(ctx); err != nil {
		return fmt.Errorf("send limiter: %w", err)
	}

	payload := map[string]string{"number": number, "text": text}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/message/sendText/%s", base, instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Evolution expects 'apikey'; some setups also accept Bearer
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send text: gateway returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
