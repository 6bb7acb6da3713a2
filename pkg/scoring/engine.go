package scoring

import (
	"math/rand"
	"sync"

	"punchcoach-server/pkg/classifier"
)

// Score-band boundaries shared by grades, feedback tiers, and bonus rules
const (
	PerfectThreshold = 95
	GreatThreshold   = 85
	GoodThreshold    = 70
)

// ScoreResult is the quality assessment of a single punch
type ScoreResult struct {
	Class      classifier.PunchClass `json:"class"`
	SpeedScore float64               `json:"speed_score"`
	FormScore  float64               `json:"form_score"`
	TotalScore float64               `json:"total_score"`
	Grade      string                `json:"grade"`
	Feedback   string                `json:"feedback"`
	IsPerfect  bool                  `json:"is_perfect"`
	IsGreat    bool                  `json:"is_great"`
	IsGood     bool                  `json:"is_good"`
}

// Engine scores punches against per-category ideals. The injected random
// source only drives feedback message choice, never a score, so tests can
// seed it or ignore it.
type Engine struct {
	mutex  sync.Mutex
	config Config
	rng    *rand.Rand
}

// NewEngine creates a scoring engine. A nil rng falls back to a fixed-seed
// source, which keeps message choice deterministic.
func NewEngine(config Config, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Engine{config: config, rng: rng}
}

// Score evaluates a classified punch's speed and elbow angle against the
// category ideals and returns the full assessment.
func (e *Engine) Score(class classifier.PunchClass, speed, angle float64) ScoreResult {
	ideal := e.config.Categories[class.Category()]

	speedScore := e.speedScore(speed, ideal.IdealSpeed)
	formScore := formScore(angle, ideal.IdealAngle, ideal.AngleTolerance)
	total := ideal.SpeedWeight*speedScore + ideal.FormWeight*formScore

	result := ScoreResult{
		Class:      class,
		SpeedScore: speedScore,
		FormScore:  formScore,
		TotalScore: total,
		Grade:      GradeFor(total),
		IsPerfect:  total >= PerfectThreshold,
		IsGreat:    total >= GreatThreshold,
		IsGood:     total >= GoodThreshold,
	}
	result.Feedback = e.pickFeedback(result)

	return result
}

// speedScore is a peaked curve, not a ramp: it climbs to 100 at the ideal,
// holds 100 through 1.5x the ideal, then decays toward the configured floor
// since excess speed implies lost control. Under-speed is penalized on two
// slopes, steeper below half the ideal.
func (e *Engine) speedScore(speed, ideal float64) float64 {
	half := ideal / 2
	peakEnd := ideal * 1.5

	switch {
	case speed <= 0:
		return 0
	case speed < half:
		return 35 * speed / half
	case speed < ideal:
		return 35 + 65*(speed-half)/half
	case speed <= peakEnd:
		return 100
	default:
		score := 100 - 80*(speed-peakEnd)/ideal
		if score < e.config.OverspeedFloor {
			return e.config.OverspeedFloor
		}
		return score
	}
}

// formScore is piecewise linear in the absolute angle deviation, continuous
// at the tolerance boundary: a gentle slope inside the band, a steep one
// beyond it.
func formScore(angle, ideal, tolerance float64) float64 {
	dev := angle - ideal
	if dev < 0 {
		dev = -dev
	}

	const insidePenalty = 15 // points lost across the full tolerance band

	var score float64
	if dev <= tolerance {
		score = 100 - insidePenalty*dev/tolerance
	} else {
		score = 100 - insidePenalty - 1.5*(dev-tolerance)
	}

	if score < 0 {
		return 0
	}
	return score
}

// GradeFor maps a total score to its letter grade
func GradeFor(total float64) string {
	switch {
	case total >= 95:
		return "S"
	case total >= 90:
		return "A+"
	case total >= 85:
		return "A"
	case total >= 80:
		return "B+"
	case total >= 70:
		return "B"
	case total >= 60:
		return "C"
	case total >= 50:
		return "D"
	default:
		return "F"
	}
}
