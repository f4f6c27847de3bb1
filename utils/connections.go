package utils

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
)

// CreateRegistryConnection opens the sqlite registry and pings it
// under an exponential backoff, so that the server survives the
// registry volume appearing slightly after boot.
func CreateRegistryConnection(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening registry at %s : %w", dbPath, err)
	}

	// reads are concurrent ; a single writer keeps ingest simple
	db.SetMaxOpenConns(8)

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(func() error {
		return db.Ping()
	}, retryBackoff); err != nil {
		return nil, fmt.Errorf("pinging registry at %s : %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("configuring registry at %s : %w", dbPath, err)
	}

	return db, nil
}
