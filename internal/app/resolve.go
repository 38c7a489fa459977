package app

import "character-quiz-bot/internal/domain"

// Resolve picks the winning outcome for a finished session.
//
// An empty or all-zero vector yields fallback when the catalog holds it, or
// the first catalog entry otherwise. Otherwise the highest score wins and
// ties go to whichever tied outcome comes first in the vector, which mirrors
// catalog order because vectors are built from the catalog.
func Resolve(catalog *domain.Catalog, scores *domain.ScoreVector, fallback string) (string, error) {
	if catalog.Len() == 0 {
		return "", domain.ErrNoOutcomesAvailable
	}

	var winner string
	if scores.IsZero() {
		winner = catalog.First()
		if fallback != "" && catalog.Has(fallback) {
			winner = fallback
		}
	} else {
		best, found := 0, false
		scores.Each(func(name string, score int) {
			if !found || score > best {
				winner, best, found = name, score, true
			}
		})
	}

	if !catalog.Has(winner) {
		return "", domain.ErrUnknownOutcome
	}
	return winner, nil
}
