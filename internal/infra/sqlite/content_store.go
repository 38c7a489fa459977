package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"character-quiz-bot/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS quiz_content (
	kind       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
)`

const (
	kindQuestions = "questions"
	kindOutcomes  = "outcomes"
)

// ContentStore keeps quiz content documents in a local SQLite file. It is
// both a content loader for the bot and the target of the seed command.
type ContentStore struct {
	db *sql.DB
}

// Open creates the database file (and its directory) if needed and applies the schema.
func Open(path string) (*ContentStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &ContentStore{db: db}, nil
}

func (s *ContentStore) Close() error {
	return s.db.Close()
}

func (s *ContentStore) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	raw, err := s.document(ctx, kindQuestions)
	if err != nil {
		return nil, err
	}
	return domain.ParseQuestions(raw)
}

func (s *ContentStore) LoadOutcomes(ctx context.Context) (*domain.Catalog, error) {
	raw, err := s.document(ctx, kindOutcomes)
	if err != nil {
		return nil, err
	}
	return domain.ParseOutcomes(raw)
}

// LoadRaw returns both documents unparsed.
func (s *ContentStore) LoadRaw(ctx context.Context) (domain.RawContent, error) {
	questions, err := s.document(ctx, kindQuestions)
	if err != nil {
		return domain.RawContent{}, err
	}
	outcomes, err := s.document(ctx, kindOutcomes)
	if err != nil {
		return domain.RawContent{}, err
	}
	return domain.RawContent{Questions: questions, Outcomes: outcomes}, nil
}

// SaveContent replaces both documents in one transaction.
func (s *ContentStore) SaveContent(ctx context.Context, content domain.RawContent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, doc := range []struct {
		kind string
		data []byte
	}{{kindQuestions, content.Questions}, {kindOutcomes, content.Outcomes}} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_content (kind, data, updated_at) VALUES (?, ?, datetime('now'))
			 ON CONFLICT(kind) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
			doc.kind, string(doc.data)); err != nil {
			return fmt.Errorf("save %s: %w", doc.kind, err)
		}
	}
	return tx.Commit()
}

func (s *ContentStore) document(ctx context.Context, kind string) ([]byte, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM quiz_content WHERE kind = ?`, kind).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %s document", domain.ErrContentMissing, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", domain.ErrContentMissing, kind, err)
	}
	return []byte(raw), nil
}
