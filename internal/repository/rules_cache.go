package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"project_waAgent/internal/entities"
)

type rulesLoader interface {
	GetRulesJSON(ctx context.Context, agentID string) (json.RawMessage, error)
}

type cachedRules struct {
	rules    entities.TenantRules
	loadedAt time.Time
}

// RulesCache serves parsed tenant rules with a short TTL. Invalidate drops
// the whole entry, so the next read reparses from storage; a read after
// Invalidate never sees a partially updated document. On load failure the
// last good value is served, and built-in defaults before the first load.
type RulesCache struct {
	loader rulesLoader
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]cachedRules
}

func NewRulesCache(loader rulesLoader, ttl time.Duration) *RulesCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RulesCache{
		loader:  loader,
		ttl:     ttl,
		entries: make(map[string]cachedRules),
	}
}

func (c *RulesCache) Rules(ctx context.Context, agentID string) entities.TenantRules {
	c.mu.RLock()
	entry, ok := c.entries[agentID]
	c.mu.RUnlock()
	if ok && time.Since(entry.loadedAt) < c.ttl {
		return entry.rules
	}

	raw, err := c.loader.GetRulesJSON(ctx, agentID)
	if err != nil {
		log.Warn().Err(err).Str("agent_id", agentID).Msg("rules load failed")
		if ok {
			return entry.rules
		}
		return entities.DefaultRules()
	}

	rules := entities.ParseRules(raw)
	c.mu.Lock()
	c.entries[agentID] = cachedRules{rules: rules, loadedAt: time.Now()}
	c.mu.Unlock()
	return rules
}

func (c *RulesCache) Invalidate(agentID string) {
	c.mu.Lock()
	delete(c.entries, agentID)
	c.mu.Unlock()
}
