package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"character-quiz-bot/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
// Implementations hand out copies; Save is the only way to change stored state.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, userID string) (*domain.Session, error)
	EvictIdle(ctx context.Context, idleSince time.Time) (int, error)
}

// Engine is the scoring state machine. It is not safe for concurrent use on
// the same user; QuizService serializes calls per user.
type Engine struct {
	content  *ContentStore
	sessions SessionRepository
	fallback string
	now      func() time.Time
	logger   *log.Logger
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithFallbackOutcome sets the outcome chosen when every score is zero.
func WithFallbackOutcome(name string) EngineOption {
	return func(e *Engine) { e.fallback = name }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

func NewEngine(content *ContentStore, sessions SessionRepository, opts ...EngineOption) *Engine {
	e := &Engine{
		content:  content,
		sessions: sessions,
		now:      time.Now,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Content() *ContentStore {
	return e.content
}

// CreateOrReset discards any previous session for userID and starts over at
// question 0 with zero scores for every catalog outcome.
func (e *Engine) CreateOrReset(ctx context.Context, userID string) (*domain.Session, error) {
	session := domain.NewSession(userID, e.content.Catalog().Names(), e.now())
	if err := e.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Start resets the user's session. The session is created even when content
// is unavailable, in which case ErrContentUnavailable is returned alongside.
func (e *Engine) Start(ctx context.Context, userID string) (domain.Transition, error) {
	session, err := e.CreateOrReset(ctx, userID)
	if err != nil {
		return domain.Transition{}, err
	}
	if !e.content.Available() {
		return domain.Transition{}, contentUnavailable(e.content.Err())
	}
	return domain.Transition{
		State:         domain.StateAwaitingAnswer,
		QuestionIndex: 0,
		Scores:        session.Scores.Clone(),
	}, nil
}

// Current reports the pending question for an in-progress session.
func (e *Engine) Current(ctx context.Context, userID string) (domain.Transition, error) {
	session, err := e.session(ctx, userID)
	if err != nil {
		return domain.Transition{}, err
	}
	if session.QuestionIndex >= e.content.QuestionCount() {
		return domain.Transition{}, domain.ErrQuizExhausted
	}
	return domain.Transition{
		State:         domain.StateAwaitingAnswer,
		QuestionIndex: session.QuestionIndex,
		Scores:        session.Scores,
	}, nil
}

// SubmitAnswer applies optionIndex to the user's current question and
// advances the session.
func (e *Engine) SubmitAnswer(ctx context.Context, userID string, optionIndex int) (domain.Transition, error) {
	session, err := e.session(ctx, userID)
	if err != nil {
		return domain.Transition{}, err
	}

	question, ok := e.content.Question(session.QuestionIndex)
	if !ok {
		return domain.Transition{}, domain.ErrQuizExhausted
	}
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return domain.Transition{}, domain.ErrInvalidChoice
	}

	question.Options[optionIndex].EachScore(func(outcome string, delta int) {
		if !session.Scores.Add(outcome, delta) {
			e.logger.Printf("content warning: question %d option %d references unknown outcome %q, skipped",
				session.QuestionIndex+1, optionIndex, outcome)
		}
	})
	session.QuestionIndex++
	session.UpdatedAt = e.now()

	if err := e.sessions.Save(ctx, session); err != nil {
		return domain.Transition{}, fmt.Errorf("save session: %w", err)
	}

	if session.QuestionIndex < e.content.QuestionCount() {
		return domain.Transition{
			State:         domain.StateAwaitingAnswer,
			QuestionIndex: session.QuestionIndex,
			Scores:        session.Scores,
		}, nil
	}

	outcome, err := Resolve(e.content.Catalog(), session.Scores, e.fallback)
	if err != nil {
		return domain.Transition{}, err
	}
	if session.Scores.IsZero() {
		e.logger.Printf("all scores are zero for user %s, resolved to %q", userID, outcome)
	}
	return domain.Transition{
		State:         domain.StateComplete,
		QuestionIndex: session.QuestionIndex,
		Outcome:       outcome,
		Scores:        session.Scores,
	}, nil
}

func (e *Engine) session(ctx context.Context, userID string) (*domain.Session, error) {
	session, err := e.sessions.Get(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func contentUnavailable(cause error) error {
	if cause == nil {
		return domain.ErrContentUnavailable
	}
	return fmt.Errorf("%w: %v", domain.ErrContentUnavailable, cause)
}
