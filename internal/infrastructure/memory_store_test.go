package infrastructure

import (
	"sync"
	"testing"
	"time"

	"project_waAgent/internal/entities"
)

func TestSeenDeduplicates(t *testing.T) {
	s := NewMemoryStateStore()

	if s.Seen("m1") {
		t.Fatal("first sighting must not be seen")
	}
	if !s.Seen("m1") {
		t.Fatal("second sighting must be seen")
	}
	if s.Seen("") || s.Seen("") {
		t.Fatal("empty id must never deduplicate")
	}
}

func TestGetStateCreatesEmpty(t *testing.T) {
	s := NewMemoryStateStore()
	st := s.GetState("ag1|551199")
	if st == nil || st.Step != entities.StepNone {
		t.Fatalf("got %+v", st)
	}
}

func TestSetAndClearState(t *testing.T) {
	s := NewMemoryStateStore()
	s.SetState("k", &entities.ConversationState{Step: entities.StepMenu})
	if s.GetState("k").Step != entities.StepMenu {
		t.Fatal("state not stored")
	}
	s.ClearState("k")
	if s.GetState("k").Step != entities.StepNone {
		t.Fatal("state not cleared")
	}
}

func TestPauseLifecycle(t *testing.T) {
	s := NewMemoryStateStore()

	s.PauseForever("k")
	if !s.IsPaused("k") {
		t.Fatal("expected paused")
	}
	s.ClearPaused("k")
	if s.IsPaused("k") {
		t.Fatal("expected unpaused")
	}

	s.SetPaused("k", time.Hour)
	if !s.IsPaused("k") {
		t.Fatal("expected timed pause active")
	}

	s.SetPaused("k2", -time.Second)
	if s.IsPaused("k2") {
		t.Fatal("expired pause must not hold")
	}
}

func TestLockKeySerializes(t *testing.T) {
	s := NewMemoryStateStore()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.LockKey("k")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("lost updates: %d", counter)
	}
}
