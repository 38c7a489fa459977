package app

import (
	"context"
	"errors"
	"log"

	"character-quiz-bot/internal/domain"
)

// Emitter delivers one directive to a presentation adapter.
type Emitter func(ctx context.Context, directive domain.Directive) error

// QuizService turns inbound user events into rendering directives. Work for a
// single user is serialized: the session change is committed before any
// directive is emitted, and the next event for that user waits until every
// directive of the previous one has been delivered.
type QuizService struct {
	engine *Engine
	locks  *KeyedMutex
	logger *log.Logger
}

func NewQuizService(engine *Engine) *QuizService {
	return &QuizService{
		engine: engine,
		locks:  NewKeyedMutex(),
		logger: engine.logger,
	}
}

func (s *QuizService) Engine() *Engine {
	return s.engine
}

// Handle processes ev and returns the directives to render.
func (s *QuizService) Handle(ctx context.Context, ev domain.Event) []domain.Directive {
	unlock := s.locks.Lock(ev.UserID)
	defer unlock()
	return s.handleLocked(ctx, ev)
}

// Dispatch processes ev and emits each directive while still holding the
// user's lock. Delivery failures are logged and never abort the flow.
func (s *QuizService) Dispatch(ctx context.Context, ev domain.Event, emit Emitter) {
	unlock := s.locks.Lock(ev.UserID)
	defer unlock()

	for _, directive := range s.handleLocked(ctx, ev) {
		if err := emit(ctx, directive); err != nil {
			s.logger.Printf("deliver %s to user %s: %v", directive.Kind, ev.UserID, err)
		}
	}
}

func (s *QuizService) handleLocked(ctx context.Context, ev domain.Event) []domain.Directive {
	switch ev.Kind {
	case domain.EventStart, domain.EventRestart:
		t, err := s.engine.Start(ctx, ev.UserID)
		if err != nil {
			return []domain.Directive{s.errorDirective(ev.UserID, err)}
		}
		return []domain.Directive{s.transitionDirective(ev.UserID, t)}

	case domain.EventOptionChosen:
		t, err := s.engine.SubmitAnswer(ctx, ev.UserID, ev.OptionIndex)
		if errors.Is(err, domain.ErrInvalidChoice) {
			out := []domain.Directive{s.errorDirective(ev.UserID, err)}
			if cur, curErr := s.engine.Current(ctx, ev.UserID); curErr == nil {
				out = append(out, s.transitionDirective(ev.UserID, cur))
			}
			return out
		}
		if err != nil {
			return []domain.Directive{s.errorDirective(ev.UserID, err)}
		}
		return []domain.Directive{s.transitionDirective(ev.UserID, t)}

	default:
		s.logger.Printf("unsupported event %q from user %s", ev.Kind, ev.UserID)
		return []domain.Directive{ErrorDirective(ev.UserID, domain.KindInternal)}
	}
}

func (s *QuizService) transitionDirective(userID string, t domain.Transition) domain.Directive {
	content := s.engine.Content()
	if t.State == domain.StateComplete {
		outcome, ok := content.Outcome(t.Outcome)
		if !ok {
			return s.errorDirective(userID, domain.ErrUnknownOutcome)
		}
		return domain.Directive{
			Kind:   domain.DirectiveShowResult,
			UserID: userID,
			Result: &domain.ResultView{
				Outcome:     t.Outcome,
				Name:        outcome.Name,
				Description: outcome.Description,
				Image:       outcome.Image,
			},
		}
	}

	question, ok := content.Question(t.QuestionIndex)
	if !ok {
		return s.errorDirective(userID, domain.ErrQuizExhausted)
	}
	return domain.Directive{
		Kind:   domain.DirectiveShowQuestion,
		UserID: userID,
		Question: &domain.QuestionView{
			Index:   t.QuestionIndex,
			Total:   content.QuestionCount(),
			Prompt:  question.Prompt,
			Options: question.Labels(),
		},
	}
}

func (s *QuizService) errorDirective(userID string, err error) domain.Directive {
	kind := domain.KindOf(err)
	if kind.AdminActionable() {
		s.logger.Printf("quiz error for user %s (%s): %v", userID, kind, err)
	}
	return ErrorDirective(userID, kind)
}

// ErrorDirective builds a ShowError directive with the user-facing text for kind.
func ErrorDirective(userID string, kind domain.ErrorKind) domain.Directive {
	return domain.Directive{
		Kind:   domain.DirectiveShowError,
		UserID: userID,
		Error:  &domain.ErrorView{Kind: kind, Message: ErrorMessage(kind)},
	}
}

// ErrorMessage returns the user-facing text for kind.
func ErrorMessage(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindContentMissing:
		return "Извините, вопросы для теста еще не загружены. Пожалуйста, сообщите администратору."
	case domain.KindSessionExpired:
		return "Кажется, ваша сессия устарела. Нажмите 'Начать тест' снова."
	case domain.KindQuizExhausted:
		return "Тест завершен. Нажмите 'Пройти ещё раз' или 'Начать'."
	case domain.KindInvalidChoice:
		return "Такого варианта ответа нет. Выберите один из предложенных."
	case domain.KindNoOutcomesAvailable:
		return "Извините, произошла внутренняя ошибка при определении персонажа. Пожалуйста, сообщите администратору."
	case domain.KindUnsupportedAction:
		return "Неизвестная команда. Нажмите 'Начать', чтобы запустить тест."
	case domain.KindUnknownOutcome:
		return "Не удалось определить вашего персонажа из-за ошибки в данных результатов. Пожалуйста, попробуйте еще раз."
	default:
		return "Произошла ошибка. Пожалуйста, попробуйте перезапустить тест."
	}
}
