// Package database persists the application state as a single named JSON
// document in SQLite. The store treats it as a best-effort mirror: the
// in-memory state is authoritative for the session.
package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/isotube/isotube-server/store"
)

type (
	Options struct {
		Filename string
	}

	Repository struct {
		store.StateRepo
	}
)

func New(o *Options) (*Repository, error) {
	if o.Filename == "" {
		return nil, fmt.Errorf("database filename not set")
	}
	dbHandle, err := sqlx.Open("sqlite", o.Filename)
	if err != nil {
		return nil, err
	}
	if err := dbInitSchema(dbHandle); err != nil {
		return nil, err
	}
	return &Repository{
		StateRepo: NewStateStorage(dbHandle),
	}, nil
}

func dbInitSchema(d *sqlx.DB) error {
	tx, err := d.Beginx()
	if err != nil {
		return err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS state (
key TEXT NOT NULL PRIMARY KEY,
document TEXT NOT NULL,
timestamp DATETIME);`,
	}

	for _, query := range schema {
		if _, err = tx.Exec(query); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
