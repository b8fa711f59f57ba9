// Package history ведёт журнал выполненных поисков в SQLite.
//
// Это не кеш: результаты поиска здесь не хранятся и повторно не отдаются.
// Журнал отвечает на вопрос "что, когда и с каким итогом искали".
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id   TEXT    NOT NULL,
	keyword      TEXT    NOT NULL,
	category     TEXT    NOT NULL DEFAULT '',
	locale       TEXT    NOT NULL DEFAULT '',
	result_count INTEGER NOT NULL DEFAULT 0,
	error        TEXT    NOT NULL DEFAULT '',
	requested_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_searches_requested_at ON searches (requested_at);
`

// Entry — одна запись журнала.
type Entry struct {
	ID          int64
	RequestID   string
	Keyword     string
	Category    string
	Locale      string // Локаль или явный хост API
	ResultCount int
	Error       string // Пусто, если поиск успешен
	RequestedAt time.Time
}

// Store — журнал поисков.
type Store struct {
	db *sql.DB
}

// Open открывает (или создаёт) базу по пути path и применяет схему.
//
// ":memory:" — база в памяти (для тестов).
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite — один писатель; к тому же каждое соединение с ":memory:" видит свою базу
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record добавляет запись и возвращает её ID.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.RequestedAt.IsZero() {
		e.RequestedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (request_id, keyword, category, locale, result_count, error, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Keyword, e.Category, e.Locale, e.ResultCount, e.Error, e.RequestedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert search: %w", err)
	}

	return res.LastInsertId()
}

// Recent возвращает последние limit записей, новые первыми.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, keyword, category, locale, result_count, error, requested_at
		 FROM searches ORDER BY requested_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			requestedAt int64
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Keyword, &e.Category, &e.Locale,
			&e.ResultCount, &e.Error, &requestedAt); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		e.RequestedAt = time.UnixMilli(requestedAt).UTC()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}
