package scoring

import "punchcoach-server/pkg/classifier"

// Multiplier is the combo step function: flat 1.0 under 3 consecutive hits,
// then fixed plateaus up to the cap at 25.
func Multiplier(comboCount int) float64 {
	switch {
	case comboCount >= 25:
		return 3.0
	case comboCount >= 15:
		return 2.5
	case comboCount >= 10:
		return 2.0
	case comboCount >= 5:
		return 1.5
	case comboCount >= 3:
		return 1.2
	default:
		return 1.0
	}
}

// BonusContext carries everything the bonus rules read for one hit
type BonusContext struct {
	Result ScoreResult

	// ComboCount is the streak length including this hit
	ComboCount int

	// BudgetUsed is elapsed reaction time over the reaction budget, in
	// [0,1]. Zero when the mode has no reaction budget.
	BudgetUsed float64

	// PerfectStreak is the run of consecutive perfect hits including this
	// one when it is perfect
	PerfectStreak int
}

// Bonus rule constants. Each contribution is independent and summed, never
// multiplied together.
const (
	perfectBonus     = 50
	greatBonus       = 25
	goodBonus        = 10
	comboBonusSmall  = 15 // combo >= 5
	comboBonusLarge  = 30 // combo >= 10
	timePressure     = 25 // resolved inside the first 40% of the budget
	perfectStreakPer = 10
	perfectStreakCap = 50
)

// BonusPoints sums the additive bonus contributions for a hit
func BonusPoints(ctx BonusContext) int {
	bonus := 0

	switch {
	case ctx.Result.IsPerfect:
		bonus += perfectBonus
	case ctx.Result.IsGreat:
		bonus += greatBonus
	case ctx.Result.IsGood:
		bonus += goodBonus
	}

	switch {
	case ctx.ComboCount >= 10:
		bonus += comboBonusLarge
	case ctx.ComboCount >= 5:
		bonus += comboBonusSmall
	}

	if ctx.BudgetUsed > 0 && ctx.BudgetUsed <= 0.4 {
		bonus += timePressure
	}

	if ctx.Result.IsPerfect && ctx.PerfectStreak > 0 {
		streak := perfectStreakPer * ctx.PerfectStreak
		if streak > perfectStreakCap {
			streak = perfectStreakCap
		}
		bonus += streak
	}

	return bonus
}

// CategoryBonus awards extra points for mechanically harder punches
func CategoryBonus(class classifier.PunchClass) int {
	switch class.Category() {
	case classifier.CategoryHook:
		return 15
	case classifier.CategoryUppercut:
		return 25
	case classifier.CategoryBody:
		return 20
	default:
		return 0
	}
}
