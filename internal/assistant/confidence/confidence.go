// internal/assistant/confidence/confidence.go

// Package confidence maps a classifier score to a discrete level and a
// clarification budget. Pure and total; there is no failure mode.
package confidence

// Level is the discrete confidence band.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Contractual thresholds. These are part of the endpoint contract and shared
// with the orchestrator's branch policy.
const (
	HighThreshold    = 0.85
	MediumThreshold  = 0.60
	ClarifyThreshold = 0.70
)

// Assessment is the result of banding a score.
type Assessment struct {
	Score                    float64 `json:"score"`
	Level                    Level   `json:"level"`
	ClarificationTurnsNeeded int     `json:"clarification_turns_needed"`
}

// Assess bands a score in [0,1]. high ≥ 0.85 needs no clarification,
// medium ≥ 0.60 needs one turn, low needs two.
func Assess(score float64) Assessment {
	switch {
	case score >= HighThreshold:
		return Assessment{Score: score, Level: LevelHigh, ClarificationTurnsNeeded: 0}
	case score >= MediumThreshold:
		return Assessment{Score: score, Level: LevelMedium, ClarificationTurnsNeeded: 1}
	default:
		return Assessment{Score: score, Level: LevelLow, ClarificationTurnsNeeded: 2}
	}
}

// ShouldClarify reports whether the clarification policy fires: confidence
// below the clarify boundary, or the classifier produced an explicit question.
func ShouldClarify(score float64, clarifyingQuestion string) bool {
	return score < ClarifyThreshold || clarifyingQuestion != ""
}

// ReadyForOutcome reports whether parallel visual-outcome generation may be
// attempted: level at least medium plus the classifier's readiness flag.
func ReadyForOutcome(score float64, classifierReady bool) bool {
	return classifierReady && Assess(score).Level != LevelLow
}
