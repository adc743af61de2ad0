// internal/assistant/persona/engine.go

// Package persona infers a buyer archetype from a message and recent history
// by scoring against a declarative signal table, with hysteresis so a single
// keyword cannot flip an established persona.
package persona

import (
	"strings"

	"shop-assistant/internal/models"
)

const (
	// Evidence strengths per signal kind.
	keywordStrength = 0.5
	patternStrength = 1.0
	historyStrength = 0.2

	// minAdoptScore is the floor below which no persona is adopted.
	minAdoptScore = 1.0

	// switchFactor is the hysteresis multiplier: an established persona is
	// only displaced when the challenger scores at least this much more.
	switchFactor = 1.5

	// historyWindow is how many trailing history turns contribute evidence.
	historyWindow = 3
)

// Infer returns the persona for this turn. Pure function over the signal
// table; the current persona is kept unless a challenger clears both the
// adoption floor and the hysteresis bar.
func Infer(message string, history []models.ChatMessage, current models.Persona) models.Persona {
	scores := Scores(message, history)

	var top models.Persona
	topScore := 0.0
	for _, p := range models.AllPersonas {
		if scores[p] > topScore {
			top = p
			topScore = scores[p]
		}
	}

	if topScore <= 0 {
		return current
	}
	if topScore < minAdoptScore {
		return current
	}
	if current != models.PersonaNone && current != top {
		if topScore < scores[current]*switchFactor {
			return current
		}
	}
	return top
}

// Scores computes the raw evidence score for every persona.
func Scores(message string, history []models.ChatMessage) map[models.Persona]float64 {
	msg := strings.ToLower(message)

	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	scores := make(map[models.Persona]float64, len(signalTable))
	for p, sig := range signalTable {
		score := 0.0

		for _, kw := range sig.Keywords {
			if strings.Contains(msg, kw) {
				score += keywordStrength * sig.Weight
			}
		}
		for _, pat := range sig.Patterns {
			if pat.MatchString(message) {
				score += patternStrength * sig.Weight
			}
		}
		for _, turn := range recent {
			content := strings.ToLower(turn.Content)
			for _, kw := range sig.Keywords {
				if strings.Contains(content, kw) {
					score += historyStrength
				}
			}
		}

		scores[p] = score
	}
	return scores
}
