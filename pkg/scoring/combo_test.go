package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"punchcoach-server/pkg/classifier"
)

func TestMultiplierPlateaus(t *testing.T) {
	cases := []struct {
		combo int
		want  float64
	}{
		{0, 1.0}, {1, 1.0}, {2, 1.0},
		{3, 1.2}, {4, 1.2},
		{5, 1.5}, {9, 1.5},
		{10, 2.0}, {14, 2.0},
		{15, 2.5}, {24, 2.5},
		{25, 3.0}, {100, 3.0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Multiplier(tc.combo), "combo %d", tc.combo)
	}
}

func TestMultiplierNeverDecreases(t *testing.T) {
	prev := 0.0
	for combo := 0; combo <= 30; combo++ {
		m := Multiplier(combo)
		assert.GreaterOrEqual(t, m, prev, "combo %d", combo)
		prev = m
	}
}

func TestBonusPointsTiers(t *testing.T) {
	perfect := ScoreResult{IsPerfect: true, IsGreat: true, IsGood: true}
	great := ScoreResult{IsGreat: true, IsGood: true}
	good := ScoreResult{IsGood: true}
	poor := ScoreResult{}

	// Tier bonuses are exclusive, only the highest applies
	assert.Equal(t, 50, BonusPoints(BonusContext{Result: perfect, ComboCount: 1}))
	assert.Equal(t, 25, BonusPoints(BonusContext{Result: great, ComboCount: 1}))
	assert.Equal(t, 10, BonusPoints(BonusContext{Result: good, ComboCount: 1}))
	assert.Equal(t, 0, BonusPoints(BonusContext{Result: poor, ComboCount: 1}))
}

func TestComboBonusThresholds(t *testing.T) {
	poor := ScoreResult{}

	assert.Equal(t, 0, BonusPoints(BonusContext{Result: poor, ComboCount: 4}))
	assert.Equal(t, 15, BonusPoints(BonusContext{Result: poor, ComboCount: 5}))
	assert.Equal(t, 15, BonusPoints(BonusContext{Result: poor, ComboCount: 9}))
	assert.Equal(t, 30, BonusPoints(BonusContext{Result: poor, ComboCount: 10}))
	assert.Equal(t, 30, BonusPoints(BonusContext{Result: poor, ComboCount: 50}))
}

func TestTimePressureBonus(t *testing.T) {
	poor := ScoreResult{}

	// Inside the first 40% of the reaction budget
	assert.Equal(t, 25, BonusPoints(BonusContext{Result: poor, BudgetUsed: 0.25}))
	assert.Equal(t, 25, BonusPoints(BonusContext{Result: poor, BudgetUsed: 0.4}))

	// Too slow, or no budget in play at all
	assert.Equal(t, 0, BonusPoints(BonusContext{Result: poor, BudgetUsed: 0.41}))
	assert.Equal(t, 0, BonusPoints(BonusContext{Result: poor, BudgetUsed: 0}))
}

func TestPerfectStreakBonus(t *testing.T) {
	perfect := ScoreResult{IsPerfect: true, IsGreat: true, IsGood: true}

	// 50 tier bonus plus 10 per streak hit, capped at 50
	assert.Equal(t, 60, BonusPoints(BonusContext{Result: perfect, PerfectStreak: 1}))
	assert.Equal(t, 80, BonusPoints(BonusContext{Result: perfect, PerfectStreak: 3}))
	assert.Equal(t, 100, BonusPoints(BonusContext{Result: perfect, PerfectStreak: 5}))
	assert.Equal(t, 100, BonusPoints(BonusContext{Result: perfect, PerfectStreak: 9}))

	// Streak bonus only pays on perfect hits
	assert.Equal(t, 25, BonusPoints(BonusContext{Result: ScoreResult{IsGreat: true, IsGood: true}, PerfectStreak: 4}))
}

func TestBonusesAreAdditive(t *testing.T) {
	perfect := ScoreResult{IsPerfect: true, IsGreat: true, IsGood: true}

	// Tier 50 + combo 30 + time pressure 25 + capped streak 50
	total := BonusPoints(BonusContext{
		Result:        perfect,
		ComboCount:    12,
		BudgetUsed:    0.2,
		PerfectStreak: 8,
	})
	assert.Equal(t, 155, total)
}

func TestCategoryBonus(t *testing.T) {
	assert.Equal(t, 0, CategoryBonus(classifier.ClassJab))
	assert.Equal(t, 0, CategoryBonus(classifier.ClassCross))
	assert.Equal(t, 15, CategoryBonus(classifier.ClassLeftHook))
	assert.Equal(t, 15, CategoryBonus(classifier.ClassRightHook))
	assert.Equal(t, 25, CategoryBonus(classifier.ClassLeftUppercut))
	assert.Equal(t, 25, CategoryBonus(classifier.ClassRightUppercut))
	assert.Equal(t, 20, CategoryBonus(classifier.ClassLeftBody))
	assert.Equal(t, 20, CategoryBonus(classifier.ClassRightBody))
}
