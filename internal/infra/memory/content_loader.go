package memory

import (
	"context"

	"character-quiz-bot/internal/domain"
)

// StaticContentLoader is a simple loader backed by in-memory content (useful for tests/demos).
type StaticContentLoader struct {
	questions []domain.Question
	catalog   *domain.Catalog
	err       error
}

func NewStaticContentLoader(questions []domain.Question, catalog *domain.Catalog) *StaticContentLoader {
	return &StaticContentLoader{questions: questions, catalog: catalog}
}

// NewFailingContentLoader returns a loader whose every call fails with err.
func NewFailingContentLoader(err error) *StaticContentLoader {
	return &StaticContentLoader{err: err}
}

func (l *StaticContentLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	if l.err != nil {
		return nil, l.err
	}
	out := make([]domain.Question, len(l.questions))
	copy(out, l.questions)
	return out, nil
}

func (l *StaticContentLoader) LoadOutcomes(_ context.Context) (*domain.Catalog, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.catalog == nil {
		return nil, domain.ErrContentMissing
	}
	return l.catalog, nil
}
