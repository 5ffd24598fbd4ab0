package entities

import (
	"encoding/json"
	"testing"
)

func TestParseRulesAppliesDefaults(t *testing.T) {
	r := ParseRules(nil)

	if r.Handoff.Keyword != "atendente" {
		t.Fatalf("keyword: %q", r.Handoff.Keyword)
	}
	if r.Hours.Open != "08:00" || r.Hours.Close != "18:00" {
		t.Fatalf("hours: %q-%q", r.Hours.Open, r.Hours.Close)
	}
	if r.Messages.Welcome == "" || r.Messages.Fallback == "" || r.Messages.HandoffRetry == "" {
		t.Fatal("message templates must have defaults")
	}
}

func TestParseRulesDegradesOnBadJSON(t *testing.T) {
	r := ParseRules(json.RawMessage(`{"menu": [this is broken`))
	if r.Handoff.Keyword != "atendente" {
		t.Fatal("broken config must degrade to defaults")
	}
}

func TestParseRulesNormalizesKeyword(t *testing.T) {
	r := ParseRules(json.RawMessage(`{"handoff": {"keyword": "  Humano "}}`))
	if r.Handoff.Keyword != "humano" {
		t.Fatalf("keyword: %q", r.Handoff.Keyword)
	}
}

func TestParseRulesIgnoresUnknownKeys(t *testing.T) {
	r := ParseRules(json.RawMessage(`{"future_feature": {"x": 1}, "menu": {"title": "Atalhos"}}`))
	if r.Menu.Title != "Atalhos" {
		t.Fatalf("title: %q", r.Menu.Title)
	}
}

func TestLeadCaptureEnabledDefaultsTrue(t *testing.T) {
	var h HandoffRules
	if !h.LeadCaptureEnabled() {
		t.Fatal("unset capture_lead must mean enabled")
	}
	off := false
	h.CaptureLead = &off
	if h.LeadCaptureEnabled() {
		t.Fatal("explicit false must disable capture")
	}
}

func TestStateKey(t *testing.T) {
	if StateKey("ag1", "5511") != "ag1|5511" {
		t.Fatal("agent-scoped key")
	}
	if StateKey("", "5511") != "5511" {
		t.Fatal("legacy key is sender alone")
	}
}
