package scoring

import "fmt"

// Feedback message pools per score tier. Choice within a tier is uniformly
// random and purely presentational.
var (
	perfectMessages = []string{
		"Perfect! Textbook execution",
		"Flawless. Do that every time",
		"Crisp and clean, championship form",
	}
	greatMessages = []string{
		"Great punch, keep that rhythm",
		"Strong work, nearly perfect",
		"Sharp! A touch more snap and it's flawless",
	}
	goodMessages = []string{
		"Good, now tighten it up",
		"Solid. Push the pace a little",
		"Decent form, stay on it",
	}
)

// pickFeedback selects a tier message, or builds remediation text naming the
// weaker sub-score when the punch falls below the good tier.
func (e *Engine) pickFeedback(result ScoreResult) string {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	switch {
	case result.IsPerfect:
		return perfectMessages[e.rng.Intn(len(perfectMessages))]
	case result.IsGreat:
		return greatMessages[e.rng.Intn(len(greatMessages))]
	case result.IsGood:
		return goodMessages[e.rng.Intn(len(goodMessages))]
	}

	if result.SpeedScore <= result.FormScore {
		return fmt.Sprintf("Too slow on the %s, commit to the punch", result.Class.Display())
	}
	return fmt.Sprintf("Fix the arm angle on the %s, control beats power", result.Class.Display())
}
