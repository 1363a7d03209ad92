package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/isotube/isotube-server/store"
)

// StateStorage implements store.StateRepo on a SQLite table holding one JSON
// document per key.
type StateStorage struct {
	dbHandle *sqlx.DB
}

func NewStateStorage(d *sqlx.DB) *StateStorage {
	return &StateStorage{
		dbHandle: d,
	}
}

// Load returns the document stored under key, or (nil, nil) when no document
// has been saved yet.
func (s *StateStorage) Load(key string) (*store.AppState, error) {
	var row struct {
		Key       string    `db:"key"`
		Document  string    `db:"document"`
		Timestamp time.Time `db:"timestamp"`
	}
	err := s.dbHandle.Get(&row, "SELECT * FROM state WHERE key=? LIMIT 1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state store.AppState
	if err := json.Unmarshal([]byte(row.Document), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save stores the document under key, replacing any previous one.
func (s *StateStorage) Save(key string, state *store.AppState) error {
	document, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.dbHandle.NamedExec(`INSERT OR REPLACE INTO state (key, document, timestamp)
		VALUES (:key, :document, :timestamp)`,
		map[string]interface{}{
			"key":       key,
			"document":  string(document),
			"timestamp": time.Now().UTC(),
		})
	return err
}
