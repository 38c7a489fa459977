package domain

import (
	"encoding/json"
	"fmt"
)

// IntegrityIssue flags an option score key that has no matching outcome.
type IntegrityIssue struct {
	Question int
	Option   int
	Outcome  string
}

func (i IntegrityIssue) String() string {
	return fmt.Sprintf("question %d option %d references unknown outcome %q", i.Question+1, i.Option, i.Outcome)
}

// ParseQuestions decodes a question collection document.
func ParseQuestions(data []byte) ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: decode questions: %v", ErrContentMissing, err)
	}
	for i, q := range questions {
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("%w: question %d has no options", ErrContentMissing, i+1)
		}
	}
	return questions, nil
}

// ParseOutcomes decodes an outcome catalog document, keeping file order.
func ParseOutcomes(data []byte) (*Catalog, error) {
	catalog := &Catalog{}
	if err := json.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("%w: decode outcomes: %v", ErrContentMissing, err)
	}
	return catalog, nil
}

// CheckIntegrity lists every option score key missing from the catalog.
func CheckIntegrity(questions []Question, catalog *Catalog) []IntegrityIssue {
	var issues []IntegrityIssue
	for qi, q := range questions {
		for oi, opt := range q.Options {
			opt.EachScore(func(outcome string, _ int) {
				if !catalog.Has(outcome) {
					issues = append(issues, IntegrityIssue{Question: qi, Option: oi, Outcome: outcome})
				}
			})
		}
	}
	return issues
}
