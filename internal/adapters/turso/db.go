package turso

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

// NewDB opens the snapshot database. Local "file:" URLs are opened as-is;
// remote URLs get the auth token appended.
func NewDB(dbURL, authToken string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	connStr := dbURL
	if !strings.HasPrefix(dbURL, "file:") {
		if authToken == "" {
			return nil, fmt.Errorf("auth token is required for remote database %s", dbURL)
		}
		connStr = fmt.Sprintf("%s?authToken=%s", dbURL, url.QueryEscape(authToken))
	}

	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if !strings.HasPrefix(dbURL, "file:") {
		// The remote server closes idle streams, so keep no idle connections.
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(0)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(0)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
