package scoring

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punchcoach-server/pkg/classifier"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	return NewEngine(cfg, rand.New(rand.NewSource(7)))
}

func TestSpeedCurveShape(t *testing.T) {
	e := newTestEngine(t)
	ideal := DefaultConfig().Categories[classifier.CategoryStraight].IdealSpeed // 2.4

	t.Run("zero speed scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, e.speedScore(0, ideal))
	})

	t.Run("monotonic up to the ideal", func(t *testing.T) {
		prev := -1.0
		for speed := 0.1; speed <= ideal; speed += 0.1 {
			score := e.speedScore(speed, ideal)
			assert.Greater(t, score, prev, "speed %.1f", speed)
			prev = score
		}
	})

	t.Run("continuous at half the ideal", func(t *testing.T) {
		half := ideal / 2
		below := e.speedScore(half-1e-6, ideal)
		at := e.speedScore(half, ideal)
		assert.InDelta(t, 35.0, at, 1e-9)
		assert.InDelta(t, at, below, 0.01)
	})

	t.Run("plateau from ideal to 1.5x", func(t *testing.T) {
		assert.Equal(t, 100.0, e.speedScore(ideal, ideal))
		assert.Equal(t, 100.0, e.speedScore(ideal*1.25, ideal))
		assert.Equal(t, 100.0, e.speedScore(ideal*1.5, ideal))
	})

	t.Run("overspeed decays to the floor", func(t *testing.T) {
		fast := e.speedScore(ideal*1.8, ideal)
		assert.Less(t, fast, 100.0)
		assert.GreaterOrEqual(t, fast, 40.0)

		// Absurd speed still bottoms out at the floor, never lower
		assert.Equal(t, 40.0, e.speedScore(ideal*10, ideal))
	})
}

func TestFormScoreContinuity(t *testing.T) {
	// Straight target: 172 degrees with a 12 degree tolerance band
	const ideal, tolerance = 172.0, 12.0

	assert.Equal(t, 100.0, formScore(ideal, ideal, tolerance))

	// Deviation is symmetric
	assert.Equal(t, formScore(ideal-6, ideal, tolerance), formScore(ideal+6, ideal, tolerance))

	// Inside the band: 15 points spread across the full tolerance
	assert.InDelta(t, 85.0, formScore(ideal-tolerance, ideal, tolerance), 1e-9)

	// No jump at the boundary
	inside := formScore(ideal-tolerance, ideal, tolerance)
	outside := formScore(ideal-tolerance-1e-6, ideal, tolerance)
	assert.InDelta(t, inside, outside, 0.01)

	// Beyond the band the slope steepens to 1.5 per degree
	assert.InDelta(t, 70.0, formScore(ideal-tolerance-10, ideal, tolerance), 1e-9)

	// Extreme deviation clamps at zero
	assert.Equal(t, 0.0, formScore(0, ideal, tolerance))
}

func TestScoreWeighting(t *testing.T) {
	e := newTestEngine(t)

	// Ideal speed and ideal angle for a jab: full marks
	result := e.Score(classifier.ClassJab, 2.4, 172)
	assert.InDelta(t, 100.0, result.TotalScore, 1e-9)
	assert.Equal(t, "S", result.Grade)
	assert.True(t, result.IsPerfect)
	assert.True(t, result.IsGreat)
	assert.True(t, result.IsGood)

	// Body shots weight speed and form evenly
	result = e.Score(classifier.ClassLeftBody, 1.8, 150)
	ideal := DefaultConfig().Categories[classifier.CategoryBody]
	expected := ideal.SpeedWeight*100 + ideal.FormWeight*formScore(150, ideal.IdealAngle, ideal.AngleTolerance)
	assert.InDelta(t, expected, result.TotalScore, 1e-9)
}

func TestTierFlagsNest(t *testing.T) {
	e := newTestEngine(t)

	// A sluggish, bent jab lands below every tier
	result := e.Score(classifier.ClassJab, 0.5, 100)
	assert.False(t, result.IsPerfect)
	assert.False(t, result.IsGreat)
	assert.False(t, result.IsGood)
	assert.Equal(t, "F", result.Grade)

	// Feedback for a weak punch names the weaker sub-score and the punch
	assert.Contains(t, result.Feedback, "Jab")
}

func TestGradeBands(t *testing.T) {
	cases := []struct {
		total float64
		grade string
	}{
		{100, "S"}, {95, "S"}, {94.9, "A+"}, {90, "A+"}, {89.9, "A"},
		{85, "A"}, {84.9, "B+"}, {80, "B+"}, {79.9, "B"}, {70, "B"},
		{69.9, "C"}, {60, "C"}, {59.9, "D"}, {50, "D"}, {49.9, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.grade, GradeFor(tc.total), "total %.1f", tc.total)
	}
}

func TestFeedbackIsDeterministicWithSeed(t *testing.T) {
	a := NewEngine(DefaultConfig(), rand.New(rand.NewSource(42)))
	b := NewEngine(DefaultConfig(), rand.New(rand.NewSource(42)))

	for i := 0; i < 10; i++ {
		ra := a.Score(classifier.ClassCross, 2.4, 172)
		rb := b.Score(classifier.ClassCross, 2.4, 172)
		assert.Equal(t, ra.Feedback, rb.Feedback)
		assert.NotEmpty(t, ra.Feedback)
	}
}

func TestRemediationNamesWeakerSubScore(t *testing.T) {
	e := newTestEngine(t)

	// Perfect form, bad speed: remediation targets speed
	slow := e.Score(classifier.ClassJab, 0.3, 172)
	assert.True(t, strings.Contains(slow.Feedback, "slow"), slow.Feedback)

	// Perfect speed, bad form: remediation targets the arm angle
	bent := e.Score(classifier.ClassJab, 2.4, 90)
	assert.True(t, strings.Contains(bent.Feedback, "angle"), bent.Feedback)
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	t.Run("weights must sum to one", func(t *testing.T) {
		cfg := DefaultConfig()
		ideal := cfg.Categories[classifier.CategoryHook]
		ideal.SpeedWeight = 0.8
		ideal.FormWeight = 0.8
		cfg.Categories[classifier.CategoryHook] = ideal
		assert.Error(t, cfg.Validate())
	})

	t.Run("tolerance must be positive", func(t *testing.T) {
		cfg := DefaultConfig()
		ideal := cfg.Categories[classifier.CategoryStraight]
		ideal.AngleTolerance = 0
		cfg.Categories[classifier.CategoryStraight] = ideal
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing category", func(t *testing.T) {
		cfg := DefaultConfig()
		delete(cfg.Categories, classifier.CategoryUppercut)
		assert.Error(t, cfg.Validate())
	})

	t.Run("overspeed floor bounds", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OverspeedFloor = 150
		assert.Error(t, cfg.Validate())
	})
}
