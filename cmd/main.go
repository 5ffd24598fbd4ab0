package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"project_waAgent/internal/infrastructure"
	"project_waAgent/internal/interfaces"
	httpiface "project_waAgent/internal/interfaces/http"
	"project_waAgent/internal/repository"
	"project_waAgent/internal/usecases"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	// Repositories
	var backup repository.LeadBackup
	if cfg.EnableCSVBackup {
		backup = repository.NewCSVLeadBackup(cfg.LeadsCSVPath)
	}
	agentRepo := repository.NewAgentRepository(pgClient.Pool)
	leadRepo := repository.NewLeadRepository(pgClient.Pool, backup)
	checkRepo := repository.NewCheckRepository(pgClient.Pool)
	userRepo := repository.NewUserRepository(pgClient.Pool)
	rulesCache := repository.NewRulesCache(agentRepo, cfg.RulesCacheTTL)

	// Optional rules invalidation fan-out between instances
	var bus *infrastructure.RulesEventBus
	if cfg.AMQPURL != "" {
		bus, err = infrastructure.NewRulesEventBus(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to amqp")
		}
		defer bus.Close()
		if err := bus.Subscribe(rulesCache.Invalidate); err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to rules events")
		}
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("rules invalidation bus connected")
	}

	stateStore, err := buildStateStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state store")
	}

	// Core services
	evoClient := infrastructure.NewEvolutionClient(cfg.EvolutionBaseURL, cfg.EvolutionAPIKey, cfg.EvolutionTimeout)
	aiClient := infrastructure.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.AIMode,
		cfg.AIEnabled, cfg.AITimeout, cfg.AIMaxTokens)
	limiter := infrastructure.NewSenderRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	engine := usecases.NewRulesEngine()

	webhookService := usecases.NewWebhookService(agentRepo, rulesCache, stateStore,
		leadRepo, evoClient, aiClient, engine, limiter)

	authUsecase := usecases.NewAuthUsecase(userRepo, cfg.JWTSecret)
	if err := authUsecase.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Warn().Err(err).Msg("failed to ensure admin user")
	}

	// Background gateway monitor
	if cfg.MonitorEnabled {
		var alerter infrastructure.Alerter
		if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
			alerter, err = infrastructure.NewTelegramAlerter(cfg.TelegramBotToken, cfg.TelegramChatID)
			if err != nil {
				log.Warn().Err(err).Msg("telegram alerter disabled")
				alerter = nil
			}
		}
		monitor := infrastructure.NewMonitor(infrastructure.MonitorConfig{
			Interval:          cfg.MonitorInterval,
			Timeout:           cfg.MonitorTimeout,
			DegradedLatency:   time.Duration(cfg.MonitorDegradedMS) * time.Millisecond,
			OfflineAfterFails: cfg.MonitorOfflineFails,
			AlertCooldown:     cfg.AlertCooldown,
		}, agentRepo, checkRepo, alerter)
		go monitor.Run(ctx)
	}

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	var invalidations httpiface.InvalidationPublisher
	if bus != nil {
		invalidations = bus
	}
	handler := httpiface.NewHandler(webhookService, agentRepo, leadRepo, checkRepo,
		rulesCache, invalidations, cfg.PushSharedSecret)
	authMiddleware := httpiface.NewMiddleware(cfg.JWTSecret)
	httpiface.SetupRoutes(r, handler, authUsecase, authMiddleware)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func buildStateStore(cfg *infrastructure.Config) (interfaces.StateStore, error) {
	if cfg.StateStore == "sqlite" {
		return infrastructure.NewSQLiteStateStore(cfg.StateStorePath)
	}
	return infrastructure.NewMemoryStateStore(), nil
}
