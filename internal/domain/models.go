package domain

import (
	"encoding/json"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Outcome is one of the named results the quiz can declare.
type Outcome struct {
	Key         string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Option is a selectable answer with per-outcome score deltas.
type Option struct {
	Text   string                              `json:"text"`
	Scores *orderedmap.OrderedMap[string, int] `json:"scores,omitempty"`
}

// Delta is a single outcome score change.
type Delta struct {
	Outcome string
	Points  int
}

// NewOption builds an option whose deltas keep the given order.
func NewOption(text string, deltas ...Delta) Option {
	scores := orderedmap.New[string, int](len(deltas))
	for _, d := range deltas {
		scores.Set(d.Outcome, d.Points)
	}
	return Option{Text: text, Scores: scores}
}

// EachScore walks the option's deltas in file order.
func (o Option) EachScore(fn func(outcome string, delta int)) {
	for pair := o.Scores.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Question is a prompt with an ordered list of options.
type Question struct {
	Prompt  string   `json:"question"`
	Options []Option `json:"options"`
}

// Labels returns the option texts in display order.
func (q Question) Labels() []string {
	labels := make([]string, len(q.Options))
	for i, opt := range q.Options {
		labels[i] = opt.Text
	}
	return labels
}

// Catalog is the insertion-ordered set of outcomes keyed by name.
type Catalog struct {
	m *orderedmap.OrderedMap[string, Outcome]
}

func NewCatalog(outcomes ...Outcome) *Catalog {
	c := &Catalog{m: orderedmap.New[string, Outcome]()}
	for _, o := range outcomes {
		c.m.Set(o.Key, o)
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return c.m.Len()
}

func (c *Catalog) Get(name string) (Outcome, bool) {
	if c.Len() == 0 {
		return Outcome{}, false
	}
	return c.m.Get(name)
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns the outcome keys in catalog order.
func (c *Catalog) Names() []string {
	if c.Len() == 0 {
		return nil
	}
	names := make([]string, 0, c.m.Len())
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// First returns the earliest outcome key, or "" for an empty catalog.
func (c *Catalog) First() string {
	if c.Len() == 0 {
		return ""
	}
	return c.m.Oldest().Key
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, Outcome]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.Key = pair.Key
	}
	c.m = m
	return nil
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	if c == nil || c.m == nil {
		return []byte("{}"), nil
	}
	return c.m.MarshalJSON()
}

// ScoreVector maps every catalog outcome to its running total, in catalog order.
type ScoreVector struct {
	m *orderedmap.OrderedMap[string, int]
}

// NewScoreVector returns an all-zero vector over names.
func NewScoreVector(names []string) *ScoreVector {
	m := orderedmap.New[string, int](len(names))
	for _, name := range names {
		m.Set(name, 0)
	}
	return &ScoreVector{m: m}
}

func (v *ScoreVector) Len() int {
	if v == nil {
		return 0
	}
	return v.m.Len()
}

func (v *ScoreVector) Get(name string) (int, bool) {
	if v.Len() == 0 {
		return 0, false
	}
	return v.m.Get(name)
}

// Add applies delta to name and reports whether name is tracked.
func (v *ScoreVector) Add(name string, delta int) bool {
	cur, ok := v.Get(name)
	if !ok {
		return false
	}
	v.m.Set(name, cur+delta)
	return true
}

// IsZero reports whether the vector is empty or every entry is exactly 0.
func (v *ScoreVector) IsZero() bool {
	zero := true
	v.Each(func(_ string, score int) {
		if score != 0 {
			zero = false
		}
	})
	return zero
}

func (v *ScoreVector) Each(fn func(name string, score int)) {
	if v == nil {
		return
	}
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

func (v *ScoreVector) Names() []string {
	names := make([]string, 0, v.Len())
	v.Each(func(name string, _ int) { names = append(names, name) })
	return names
}

func (v *ScoreVector) Clone() *ScoreVector {
	out := &ScoreVector{m: orderedmap.New[string, int](v.Len())}
	v.Each(func(name string, score int) { out.m.Set(name, score) })
	return out
}

func (v *ScoreVector) MarshalJSON() ([]byte, error) {
	if v == nil || v.m == nil {
		return []byte("{}"), nil
	}
	return v.m.MarshalJSON()
}

func (v *ScoreVector) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, int]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	v.m = m
	return nil
}

// Session is one user's progress through the quiz.
type Session struct {
	UserID        string       `json:"userId"`
	QuestionIndex int          `json:"questionIndex"`
	Scores        *ScoreVector `json:"scores"`
	StartedAt     time.Time    `json:"startedAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NewSession starts a session at question 0 with zero scores for every outcome.
func NewSession(userID string, outcomes []string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Scores:    NewScoreVector(outcomes),
		StartedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Scores = s.Scores.Clone()
	return &out
}

// State is the scoring state machine position.
type State int

const (
	StateAwaitingAnswer State = iota + 1
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Transition is the engine's answer to a start or a submitted option.
type Transition struct {
	State         State
	QuestionIndex int
	Outcome       string
	Scores        *ScoreVector
}

// EventKind enumerates inbound user actions.
type EventKind string

const (
	EventStart        EventKind = "start"
	EventOptionChosen EventKind = "answer"
	EventRestart      EventKind = "restart"
)

// Event is a single inbound user action.
type Event struct {
	Kind        EventKind
	UserID      string
	OptionIndex int
}

func StartRequested(userID string) Event {
	return Event{Kind: EventStart, UserID: userID}
}

func OptionChosen(userID string, optionIndex int) Event {
	return Event{Kind: EventOptionChosen, UserID: userID, OptionIndex: optionIndex}
}

func RestartRequested(userID string) Event {
	return Event{Kind: EventRestart, UserID: userID}
}

// DirectiveKind tells a presentation adapter what to render.
type DirectiveKind string

const (
	DirectiveShowQuestion DirectiveKind = "question"
	DirectiveShowResult   DirectiveKind = "result"
	DirectiveShowError    DirectiveKind = "error"
)

// QuestionView is the payload of a ShowQuestion directive.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// ResultView is the payload of a ShowResult directive.
type ResultView struct {
	Outcome     string `json:"outcome"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// ErrorView is the payload of a ShowError directive.
type ErrorView struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Directive is a rendering instruction for a presentation adapter.
type Directive struct {
	Kind     DirectiveKind `json:"type"`
	UserID   string        `json:"-"`
	Question *QuestionView `json:"question,omitempty"`
	Result   *ResultView   `json:"result,omitempty"`
	Error    *ErrorView    `json:"error,omitempty"`
}

// Payload returns the view matching Kind.
func (d Directive) Payload() any {
	switch d.Kind {
	case DirectiveShowQuestion:
		return d.Question
	case DirectiveShowResult:
		return d.Result
	default:
		return d.Error
	}
}

// RawContent is the on-disk/database shape of the two content documents.
type RawContent struct {
	Questions json.RawMessage
	Outcomes  json.RawMessage
}
