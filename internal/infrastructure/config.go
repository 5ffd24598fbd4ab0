package infrastructure

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from the environment (a .env file is read first when
// present). Only DATABASE_URL and JWT_SECRET are mandatory.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	// Gateway defaults for legacy single-tenant setups; per-agent
	// values in the database take precedence.
	EvolutionBaseURL string        `env:"EVOLUTION_BASE_URL"`
	EvolutionAPIKey  string        `env:"EVOLUTION_API_KEY"`
	EvolutionTimeout time.Duration `env:"EVOLUTION_TIMEOUT" envDefault:"20s"`

	AIEnabled   bool          `env:"AI_ENABLED" envDefault:"false"`
	AIMode      string        `env:"AI_MODE" envDefault:"assistive"`
	OpenAIKey   string        `env:"OPENAI_API_KEY"`
	OpenAIModel string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AITimeout   time.Duration `env:"AI_TIMEOUT" envDefault:"10s"`
	AIMaxTokens int64         `env:"AI_MAX_TOKENS" envDefault:"220"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"8"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"10s"`

	// memory | sqlite
	StateStore     string `env:"STATE_STORE" envDefault:"memory"`
	StateStorePath string `env:"STATE_STORE_PATH" envDefault:"state.db"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"waagent.events"`

	RulesCacheTTL time.Duration `env:"RULES_CACHE_TTL" envDefault:"60s"`

	MonitorEnabled      bool          `env:"MONITOR_ENABLED" envDefault:"true"`
	MonitorInterval     time.Duration `env:"MONITOR_INTERVAL" envDefault:"60s"`
	MonitorTimeout      time.Duration `env:"MONITOR_TIMEOUT" envDefault:"8s"`
	MonitorDegradedMS   int           `env:"MONITOR_DEGRADED_MS" envDefault:"2000"`
	MonitorOfflineFails int           `env:"MONITOR_OFFLINE_AFTER_FAILS" envDefault:"3"`
	AlertCooldown       time.Duration `env:"ALERT_COOLDOWN" envDefault:"15m"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	PushSharedSecret string `env:"PUSH_SHARED_SECRET"`

	LeadsCSVPath    string `env:"LEADS_CSV_PATH" envDefault:"leads_backup.csv"`
	EnableCSVBackup bool   `env:"ENABLE_CSV_BACKUP" envDefault:"false"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
