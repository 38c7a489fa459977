package postgres

import (
	"context"
	"errors"
	"fmt"

	"character-quiz-bot/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Content document kinds stored in quiz_content.kind.
const (
	KindQuestions = "questions"
	KindOutcomes  = "outcomes"
)

// ContentLoader loads quiz content documents from Postgres. The column is
// json rather than jsonb so outcome order survives the round trip.
type ContentLoader struct {
	pool *pgxpool.Pool
}

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

func (l *ContentLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	raw, err := l.document(ctx, KindQuestions)
	if err != nil {
		return nil, err
	}
	return domain.ParseQuestions(raw)
}

func (l *ContentLoader) LoadOutcomes(ctx context.Context) (*domain.Catalog, error) {
	raw, err := l.document(ctx, KindOutcomes)
	if err != nil {
		return nil, err
	}
	return domain.ParseOutcomes(raw)
}

// LoadRaw returns both documents unparsed.
func (l *ContentLoader) LoadRaw(ctx context.Context) (domain.RawContent, error) {
	questions, err := l.document(ctx, KindQuestions)
	if err != nil {
		return domain.RawContent{}, err
	}
	outcomes, err := l.document(ctx, KindOutcomes)
	if err != nil {
		return domain.RawContent{}, err
	}
	return domain.RawContent{Questions: questions, Outcomes: outcomes}, nil
}

func (l *ContentLoader) document(ctx context.Context, kind string) ([]byte, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data::text FROM quiz_content WHERE kind=$1`, kind).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %s document", domain.ErrContentMissing, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", domain.ErrContentMissing, kind, err)
	}
	return raw, nil
}
