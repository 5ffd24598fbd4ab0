package infrastructure

import (
	"path/filepath"
	"testing"

	"project_waAgent/internal/entities"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStateStore {
	t.Helper()
	s, err := NewSQLiteStateStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSeenDeduplicates(t *testing.T) {
	s := newTestSQLiteStore(t)

	if s.Seen("m1") {
		t.Fatal("first sighting must not be seen")
	}
	if !s.Seen("m1") {
		t.Fatal("second sighting must be seen")
	}
	if s.Seen("") {
		t.Fatal("empty id must never deduplicate")
	}
}

func TestSQLiteStateRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)

	st := &entities.ConversationState{
		Step: entities.StepHandoffCollect,
		Lead: &entities.LeadDraft{Nome: "Maria", Telefone: "1199", Assunto: "Preço"},
	}
	s.SetState("ag1|5511", st)

	got := s.GetState("ag1|5511")
	if got.Step != entities.StepHandoffCollect {
		t.Fatalf("step: %q", got.Step)
	}
	if got.Lead == nil || got.Lead.Nome != "Maria" {
		t.Fatalf("lead: %+v", got.Lead)
	}

	s.ClearState("ag1|5511")
	if s.GetState("ag1|5511").Step != entities.StepNone {
		t.Fatal("state not cleared")
	}
}

func TestSQLitePauseSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")

	s, err := NewSQLiteStateStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.PauseForever("k")
	s.Close()

	s2, err := NewSQLiteStateStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()
	if !s2.IsPaused("k") {
		t.Fatal("pause must survive restart")
	}
}
