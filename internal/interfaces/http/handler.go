package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"project_waAgent/internal/entities"
	"project_waAgent/internal/interfaces"
	"project_waAgent/internal/repository"
	"project_waAgent/internal/usecases"
)

// InvalidationPublisher broadcasts rules-cache invalidations to peers.
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context, agentID string) error
}

type Handler struct {
	webhook    *usecases.WebhookService
	agentRepo  *repository.AgentRepository
	leadRepo   *repository.LeadRepository
	checkRepo  *repository.CheckRepository
	rules      interfaces.RulesProvider
	bus        InvalidationPublisher
	pushSecret string
}

func NewHandler(webhook *usecases.WebhookService, agentRepo *repository.AgentRepository,
	leadRepo *repository.LeadRepository, checkRepo *repository.CheckRepository,
	rules interfaces.RulesProvider, bus InvalidationPublisher, pushSecret string) *Handler {
	return &Handler{
		webhook:    webhook,
		agentRepo:  agentRepo,
		leadRepo:   leadRepo,
		checkRepo:  checkRepo,
		rules:      rules,
		bus:        bus,
		pushSecret: pushSecret,
	}
}

func SetupRoutes(r *gin.Engine, h *Handler, auth *usecases.AuthUsecase, middleware *Middleware) {
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(2 << 20)) // 2MB max request size
	r.Use(middleware.CORSMiddleware())

	// Public routes
	r.POST("/webhook/evolution", h.HandleEvolutionWebhook)
	r.POST("/agent/push/check", h.HandlePushCheck)
	r.GET("/status", h.HandleStatus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			var loginReq struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&loginReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			token, err := auth.Login(c.Request.Context(), loginReq.Username, loginReq.Password)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})
	}

	// Protected admin routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.GET("/leads", h.GetLeads)
		api.GET("/agents", h.GetAgents)
		api.GET("/agents/checks", h.GetAgentChecks)
		api.PUT("/agents/:id/rules", h.UpdateAgentRules)
	}
}

// HandleEvolutionWebhook receives gateway deliveries. It always answers 200
// with a result body; a non-2xx here would make the gateway retry payloads
// that will never parse.
func (h *Handler) HandleEvolutionWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, usecases.ProcessResult{OK: true, Ignored: "bad_json"})
		return
	}
	c.JSON(http.StatusOK, h.webhook.Process(c.Request.Context(), raw))
}

func (h *Handler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandlePushCheck records a health report pushed by an on-premise watchdog.
func (h *Handler) HandlePushCheck(c *gin.Context) {
	if h.pushSecret == "" || c.GetHeader("X-Push-Secret") != h.pushSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid push secret"})
		return
	}

	var req struct {
		AgentID   string `json:"agent_id" binding:"required"`
		Instance  string `json:"instance"`
		Status    string `json:"status"`
		LatencyMS *int   `json:"latency_ms"`
		Error     string `json:"error"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	agent, err := h.agentRepo.GetByID(c.Request.Context(), req.AgentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown agent"})
		return
	}

	status := req.Status
	switch status {
	case entities.CheckOnline, entities.CheckDegraded, entities.CheckOffline:
	default:
		status = entities.CheckUnknown
	}

	check := &entities.AgentCheck{
		ClientID:  agent.ClientID,
		AgentID:   agent.ID,
		Instance:  agent.Instance,
		Mode:      "push",
		Status:    status,
		LatencyMS: req.LatencyMS,
		Error:     req.Error,
	}
	if err := h.checkRepo.InsertAgentCheck(c.Request.Context(), check); err != nil {
		log.Error().Err(err).Str("agent_id", agent.ID).Msg("push check insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record check"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": check.ID})
}

func (h *Handler) GetLeads(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	leads, err := h.leadRepo.GetLastLeads(c.Request.Context(), clientID, limit)
	if err != nil {
		log.Error().Err(err).Msg("list leads failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list leads"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

func (h *Handler) GetAgents(c *gin.Context) {
	agents, err := h.agentRepo.ListAgents(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list agents failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list agents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *Handler) GetAgentChecks(c *gin.Context) {
	checks, err := h.checkRepo.LatestChecks(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list agent checks failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list checks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checks": checks})
}

// UpdateAgentRules replaces an agent's rules document, drops the local cache
// entry and broadcasts the invalidation to peer instances.
func (h *Handler) UpdateAgentRules(c *gin.Context) {
	agentID := c.Param("id")

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON rules document"})
		return
	}

	if err := h.agentRepo.UpdateRules(c.Request.Context(), agentID, raw); err != nil {
		if err == interfaces.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown agent"})
			return
		}
		log.Error().Err(err).Str("agent_id", agentID).Msg("update rules failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update rules"})
		return
	}

	h.rules.Invalidate(agentID)
	if h.bus != nil {
		if err := h.bus.PublishInvalidation(c.Request.Context(), agentID); err != nil {
			log.Warn().Err(err).Str("agent_id", agentID).Msg("invalidation publish failed")
		}
	}

	log.Info().Str("agent_id", agentID).Msg("agent rules updated")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
