// Package history persists REPL input lines in a local SQLite database so a
// new session can recall what earlier ones ran.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	entered_at TEXT NOT NULL,
	line       TEXT NOT NULL
);`

type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Append(line string) error {
	_, err := s.db.Exec(
		"INSERT INTO entries (entered_at, line) VALUES (?, ?)",
		time.Now().UTC().Format(time.RFC3339), line,
	)
	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

// Recent returns up to n of the most recent lines, oldest first.
func (s *Store) Recent(n int) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT line FROM (SELECT id, line FROM entries ORDER BY id DESC LIMIT ?) ORDER BY id ASC", n,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
