package infrastructure

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"project_waAgent/internal/entities"
)

// SQLiteStateStore is a restart-safe drop-in for MemoryStateStore, backed by
// a local SQLite file. State rows are whole-value JSON blobs per conversation
// key; the dedup set is its own table.
type SQLiteStateStore struct {
	db *sql.DB

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewSQLiteStateStore(path string) (*SQLiteStateStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	ddl := `
	CREATE TABLE IF NOT EXISTS conversation_state (
		key TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS seen_messages (
		id TEXT PRIMARY KEY,
		seen_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	return &SQLiteStateStore{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *SQLiteStateStore) Close() error { return s.db.Close() }

func (s *SQLiteStateStore) Seen(messageID string) bool {
	if messageID == "" {
		return false
	}
	res, err := s.db.Exec("INSERT OR IGNORE INTO seen_messages (id) VALUES (?)", messageID)
	if err != nil {
		log.Error().Err(err).Msg("state db: record seen id")
		return false
	}
	n, _ := res.RowsAffected()
	return n == 0
}

func (s *SQLiteStateStore) GetState(key string) *entities.ConversationState {
	var raw string
	err := s.db.QueryRow("SELECT state FROM conversation_state WHERE key = ?", key).Scan(&raw)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Error().Err(err).Str("key", key).Msg("state db: read state")
		}
		return &entities.ConversationState{}
	}
	var st entities.ConversationState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		log.Error().Err(err).Str("key", key).Msg("state db: corrupt state row")
		return &entities.ConversationState{}
	}
	return &st
}

func (s *SQLiteStateStore) SetState(key string, state *entities.ConversationState) {
	if state == nil {
		state = &entities.ConversationState{}
	}
	raw, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("state db: encode state")
		return
	}
	_, err = s.db.Exec(`
		INSERT INTO conversation_state (key, state, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET state = excluded.state, updated_at = CURRENT_TIMESTAMP
	`, key, string(raw))
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("state db: write state")
	}
}

func (s *SQLiteStateStore) ClearState(key string) {
	if _, err := s.db.Exec("DELETE FROM conversation_state WHERE key = ?", key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("state db: clear state")
	}
}

func (s *SQLiteStateStore) SetPaused(key string, d time.Duration) {
	st := s.GetState(key)
	until := time.Now().Add(d)
	st.PausedUntil = &until
	st.PausedForever = false
	s.SetState(key, st)
}

func (s *SQLiteStateStore) PauseForever(key string) {
	st := s.GetState(key)
	st.PausedForever = true
	st.PausedUntil = nil
	s.SetState(key, st)
}

func (s *SQLiteStateStore) ClearPaused(key string) {
	st := s.GetState(key)
	st.PausedForever = false
	st.PausedUntil = nil
	s.SetState(key, st)
}

func (s *SQLiteStateStore) IsPaused(key string) bool {
	st := s.GetState(key)
	if st.PausedForever {
		return true
	}
	return st.PausedUntil != nil && time.Now().Before(*st.PausedUntil)
}

func (s *SQLiteStateStore) LockKey(key string) func() {
	s.lockMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}
