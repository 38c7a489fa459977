package file

import (
	"context"
	"fmt"
	"os"

	"character-quiz-bot/internal/domain"
)

// ContentLoader reads the question collection and outcome catalog from JSON files.
type ContentLoader struct {
	questionsPath string
	outcomesPath  string
}

func NewContentLoader(questionsPath, outcomesPath string) *ContentLoader {
	return &ContentLoader{questionsPath: questionsPath, outcomesPath: outcomesPath}
}

func (l *ContentLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := l.read(l.questionsPath)
	if err != nil {
		return nil, err
	}
	return domain.ParseQuestions(data)
}

func (l *ContentLoader) LoadOutcomes(_ context.Context) (*domain.Catalog, error) {
	data, err := l.read(l.outcomesPath)
	if err != nil {
		return nil, err
	}
	return domain.ParseOutcomes(data)
}

// LoadRaw returns both documents unparsed, for seeding databases.
func (l *ContentLoader) LoadRaw(_ context.Context) (domain.RawContent, error) {
	questions, err := l.read(l.questionsPath)
	if err != nil {
		return domain.RawContent{}, err
	}
	if _, err := domain.ParseQuestions(questions); err != nil {
		return domain.RawContent{}, err
	}
	outcomes, err := l.read(l.outcomesPath)
	if err != nil {
		return domain.RawContent{}, err
	}
	if _, err := domain.ParseOutcomes(outcomes); err != nil {
		return domain.RawContent{}, err
	}
	return domain.RawContent{Questions: questions, Outcomes: outcomes}, nil
}

func (l *ContentLoader) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentMissing, err)
	}
	return data, nil
}
