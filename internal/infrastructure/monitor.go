package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"project_waAgent/internal/entities"
)

// MonitorConfig tunes the background gateway health poller.
type MonitorConfig struct {
	Interval          time.Duration
	Timeout           time.Duration
	DegradedLatency   time.Duration
	OfflineAfterFails int
	AlertCooldown     time.Duration
}

type agentLister interface {
	ListAgents(ctx context.Context) ([]entities.Agent, error)
}

type checkRecorder interface {
	InsertAgentCheck(ctx context.Context, check *entities.AgentCheck) error
}

// Alerter notifies operators on agent status transitions.
type Alerter interface {
	Alert(text string)
}

// TelegramAlerter pushes monitor alerts to a fixed operator chat.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramAlerter) Alert(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		log.Warn().Err(err).Msg("telegram alert failed")
	}
}

// Monitor polls every agent's gateway on a fixed interval, classifies the
// result (online, degraded, offline), records it and alerts operators on
// status transitions. An agent is only marked offline after
// OfflineAfterFails consecutive failures, so one flaky probe never pages.
type Monitor struct {
	cfg     MonitorConfig
	agents  agentLister
	checks  checkRecorder
	alerter Alerter
	http    *http.Client

	mu         sync.Mutex
	failStreak map[string]int
	lastStatus map[string]string
	lastAlert  map[string]time.Time
}

func NewMonitor(cfg MonitorConfig, agents agentLister, checks checkRecorder, alerter Alerter) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.DegradedLatency <= 0 {
		cfg.DegradedLatency = 2 * time.Second
	}
	if cfg.OfflineAfterFails <= 0 {
		cfg.OfflineAfterFails = 3
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = 15 * time.Minute
	}
	return &Monitor{
		cfg:        cfg,
		agents:     agents,
		checks:     checks,
		alerter:    alerter,
		http:       &http.Client{Timeout: cfg.Timeout},
		failStreak: make(map[string]int),
		lastStatus: make(map[string]string),
		lastAlert:  make(map[string]time.Time),
	}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	log.Info().Dur("interval", m.cfg.Interval).Msg("gateway monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway monitor stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	agents, err := m.agents.ListAgents(ctx)
	if err != nil {
		log.Error().Err(err).Msg("monitor: list agents")
		return
	}
	for i := range agents {
		agent := &agents[i]
		if agent.Status == entities.AgentStatusDisabled || strings.TrimSpace(agent.EvolutionBaseURL) == "" {
			continue
		}
		m.checkAgent(ctx, agent)
	}
}

func (m *Monitor) checkAgent(ctx context.Context, agent *entities.Agent) {
	status, latency, probeErr := m.probe(ctx, agent)

	m.mu.Lock()
	if status == entities.CheckOffline {
		m.failStreak[agent.ID]++
		// below the threshold a failing probe counts as degraded
		if m.failStreak[agent.ID] < m.cfg.OfflineAfterFails {
			status = entities.CheckDegraded
		}
	} else {
		m.failStreak[agent.ID] = 0
	}
	prev := m.lastStatus[agent.ID]
	m.lastStatus[agent.ID] = status
	m.mu.Unlock()

	check := &entities.AgentCheck{
		ClientID: agent.ClientID,
		AgentID:  agent.ID,
		Instance: agent.Instance,
		Mode:     "poll",
		Status:   status,
	}
	if latency > 0 {
		ms := int(latency.Milliseconds())
		check.LatencyMS = &ms
	}
	if probeErr != nil {
		check.Error = probeErr.Error()
	}
	if err := m.checks.InsertAgentCheck(ctx, check); err != nil {
		log.Error().Err(err).Str("agent_id", agent.ID).Msg("monitor: record check")
	}

	if prev != "" && prev != status {
		m.alert(agent, prev, status, probeErr)
	}
}

func (m *Monitor) probe(ctx context.Context, agent *entities.Agent) (string, time.Duration, error) {
	url := strings.TrimRight(strings.TrimSpace(agent.EvolutionBaseURL), "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entities.CheckOffline, 0, err
	}
	if key := strings.TrimSpace(agent.APIKey); key != "" {
		req.Header.Set("apikey", key)
	}

	start := time.Now()
	resp, err := m.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		return entities.CheckOffline, latency, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return entities.CheckOffline, latency, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	if latency > m.cfg.DegradedLatency {
		return entities.CheckDegraded, latency, nil
	}
	return entities.CheckOnline, latency, nil
}

func (m *Monitor) alert(agent *entities.Agent, prev, status string, probeErr error) {
	if m.alerter == nil {
		return
	}

	m.mu.Lock()
	last := m.lastAlert[agent.ID]
	now := time.Now()
	// recoveries always alert; repeat degradations honor the cooldown
	if status != entities.CheckOnline && now.Sub(last) < m.cfg.AlertCooldown {
		m.mu.Unlock()
		return
	}
	m.lastAlert[agent.ID] = now
	m.mu.Unlock()

	text := fmt.Sprintf("⚠️ Agente %s (%s): %s → %s", agent.Name, agent.Instance, prev, status)
	if status == entities.CheckOnline {
		text = fmt.Sprintf("✅ Agente %s (%s) voltou: %s → %s", agent.Name, agent.Instance, prev, status)
	}
	if probeErr != nil {
		text += "\nErro: " + probeErr.Error()
	}

	log.Warn().Str("agent_id", agent.ID).Str("from", prev).Str("to", status).Msg("agent status changed")
	m.alerter.Alert(text)
}
