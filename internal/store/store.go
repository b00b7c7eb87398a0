package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

// Store is the SQLite translation memory. It also keeps a history of the
// requests that produced each memory entry.
type Store struct {
	db *sql.DB
}

// ProviderResult is one provider's answer to a remembered request.
type ProviderResult struct {
	Provider   string
	Text       string
	Confidence float64
	Latency    time.Duration
	Error      string
}

// Entry is everything recorded for a completed translation.
type Entry struct {
	RequestID  string
	SourceText string
	SourceLang string
	TargetLang string
	FinalText  string
	Provider   string
	Results    []ProviderResult
	CreatedAt  time.Time
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	SourceLang  string
	TargetLang  string
	FinalText   string
	ServiceUsed string
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
	Requests       int
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every HTTP request may write; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_requests (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		selected_service TEXT,
		final_text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS translation_results (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		service_name TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		confidence REAL,
		latency_ms INTEGER,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (request_id) REFERENCES translation_requests(id)
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		final_text TEXT NOT NULL,
		service_used TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_results_request ON translation_results(request_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the remembered translation for the exact (normalised)
// source text and language pair. Invalidated entries are misses.
func (s *Store) Lookup(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	key := NormalizeText(sourceText)

	var finalText string
	var invalidated bool
	err := s.db.QueryRowContext(ctx,
		`SELECT final_text, invalidated FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		key, sourceLang, targetLang).Scan(&finalText, &invalidated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), key, sourceLang, targetLang)

	return finalText, true, err
}

// Remember records the request, every provider result and the memory row in
// one transaction. An existing memory row for the same key is overwritten
// and re-validated.
func (s *Store) Remember(ctx context.Context, e Entry) error {
	if e.RequestID == "" {
		return errors.New("entry has no request id")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	key := NormalizeText(e.SourceText)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO translation_requests (id, source_text, source_lang, target_lang, selected_service, final_text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, key, e.SourceLang, e.TargetLang, e.Provider, e.FinalText, e.CreatedAt); err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}

	// a chunked request carries one result per provider per piece
	for i, r := range e.Results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO translation_results (id, request_id, service_name, translated_text, confidence, latency_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fmt.Sprintf("%s_%d_%s", e.RequestID, i, r.Provider), e.RequestID, r.Provider, r.Text, r.Confidence, r.Latency.Milliseconds(), r.Error); err != nil {
			return fmt.Errorf("failed to save %s result: %w", r.Provider, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO translation_memory (id, source_text, source_lang, target_lang, final_text, service_used, usage_count, invalidated, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)
		 ON CONFLICT(source_text, source_lang, target_lang) DO UPDATE SET
			final_text = excluded.final_text,
			service_used = excluded.service_used,
			invalidated = FALSE,
			last_used = excluded.last_used`,
		"mem_"+e.RequestID, key, e.SourceLang, e.TargetLang, e.FinalText, e.Provider, e.CreatedAt, e.CreatedAt); err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}

	return tx.Commit()
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	return err
}

// ClearMemory removes all translation memory entries. Request history is kept.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, final_text, service_used, usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.FinalText, &e.ServiceUsed, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0),
			(SELECT COUNT(*) FROM translation_requests)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
		&stats.Requests,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// NormalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func NormalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
