package app

import (
	"context"
	"log"

	"character-quiz-bot/internal/domain"
)

// ContentLoader fetches quiz content from a backing source (files, database, cache).
type ContentLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
	LoadOutcomes(ctx context.Context) (*domain.Catalog, error)
}

// ContentStore is the read-only rule table for the scoring engine. It is
// populated once by LoadContent and never mutated afterwards.
type ContentStore struct {
	questions []domain.Question
	catalog   *domain.Catalog
	err       error
}

// NewContentStore builds an available store from already-validated content.
func NewContentStore(questions []domain.Question, catalog *domain.Catalog) *ContentStore {
	if catalog == nil {
		catalog = domain.NewCatalog()
	}
	return &ContentStore{questions: questions, catalog: catalog}
}

// LoadContent reads questions and outcomes through loader. Load failures do
// not abort startup: the failing half is left empty and the store reports
// itself unavailable so quiz starts can surface a degraded-mode error.
func LoadContent(ctx context.Context, loader ContentLoader, logger *log.Logger) *ContentStore {
	if logger == nil {
		logger = log.Default()
	}
	store := &ContentStore{catalog: domain.NewCatalog()}

	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		logger.Printf("content: questions unavailable: %v", err)
		store.err = err
	} else {
		store.questions = questions
	}

	catalog, err := loader.LoadOutcomes(ctx)
	if err != nil {
		logger.Printf("content: outcomes unavailable: %v", err)
		if store.err == nil {
			store.err = err
		}
	} else if catalog != nil {
		store.catalog = catalog
	}

	for _, issue := range domain.CheckIntegrity(store.questions, store.catalog) {
		logger.Printf("content warning: %s", issue)
	}
	if store.err == nil {
		logger.Printf("content: loaded %d questions, %d outcomes", len(store.questions), store.catalog.Len())
	}
	return store
}

// Available reports whether both content documents loaded and there is at least one question.
func (c *ContentStore) Available() bool {
	return c.err == nil && len(c.questions) > 0
}

// Err returns the load failure, if any.
func (c *ContentStore) Err() error {
	return c.err
}

func (c *ContentStore) QuestionCount() int {
	return len(c.questions)
}

func (c *ContentStore) Question(i int) (domain.Question, bool) {
	if i < 0 || i >= len(c.questions) {
		return domain.Question{}, false
	}
	return c.questions[i], true
}

func (c *ContentStore) Catalog() *domain.Catalog {
	return c.catalog
}

func (c *ContentStore) Outcome(name string) (domain.Outcome, bool) {
	return c.catalog.Get(name)
}
