package session

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, id);
`

// SQLiteStore persists session history across restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	if _, err := db.Exec(sessionSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(sessionID string, exchange Exchange) error {
	_, err := s.db.Exec(
		"INSERT INTO exchanges (session_id, question, answer) VALUES (?, ?, ?)",
		sessionID, exchange.Question, exchange.Answer,
	)
	if err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(sessionID string, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.db.Query(
		"SELECT question, answer FROM (SELECT id, question, answer FROM exchanges WHERE session_id = ? ORDER BY id DESC LIMIT ?) ORDER BY id ASC",
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var exchange Exchange
		if err := rows.Scan(&exchange.Question, &exchange.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, exchange)
	}
	return exchanges, rows.Err()
}

func (s *SQLiteStore) Clear(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM exchanges WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
