package postgres

import (
	"context"
	"fmt"

	"character-quiz-bot/internal/domain"
	"github.com/uptrace/bun"
)

// ContentWriter upserts content documents through bun.
type ContentWriter struct {
	db *bun.DB
}

func NewContentWriter(db *bun.DB) *ContentWriter {
	return &ContentWriter{db: db}
}

// SaveContent replaces both documents in one transaction.
func (w *ContentWriter) SaveContent(ctx context.Context, content domain.RawContent) error {
	return w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for kind, data := range map[string][]byte{KindQuestions: content.Questions, KindOutcomes: content.Outcomes} {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quiz_content (kind, data, updated_at) VALUES (?, ?::json, now())
				 ON CONFLICT (kind) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
				kind, string(data)); err != nil {
				return fmt.Errorf("save %s: %w", kind, err)
			}
		}
		return nil
	})
}
