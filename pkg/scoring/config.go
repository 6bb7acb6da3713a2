// Package scoring converts raw punch metrics into 0-100 quality scores,
// letter grades, and feedback, and owns the combo multiplier and bonus-point
// rules the drill scheduler applies on each hit.
package scoring

import (
	"punchcoach-server/pkg/classifier"
	"punchcoach-server/pkg/errors"
)

// CategoryIdeal holds the scoring targets for one punch category
type CategoryIdeal struct {
	// IdealSpeed is the wrist speed, in frame units per second, that earns a
	// full speed sub-score. Anything up to 1.5x the ideal still scores 100;
	// beyond that control is assumed lost and the score decays.
	IdealSpeed float64 `json:"ideal_speed"`

	// IdealAngle is the elbow angle in degrees that earns a full form
	// sub-score
	IdealAngle float64 `json:"ideal_angle"`

	// AngleTolerance is the deviation band in degrees with a gentle penalty
	// slope; deviation beyond it is penalized steeply
	AngleTolerance float64 `json:"angle_tolerance"`

	// SpeedWeight and FormWeight combine the sub-scores into the total.
	// They must sum to 1.
	SpeedWeight float64 `json:"speed_weight"`
	FormWeight  float64 `json:"form_weight"`
}

// Config holds the scoring targets per punch category
type Config struct {
	Categories map[classifier.Category]CategoryIdeal `json:"categories"`

	// OverspeedFloor is the lowest speed sub-score an over-fast punch can
	// fall to. Excess speed costs control, not everything.
	OverspeedFloor float64 `json:"overspeed_floor"`
}

// DefaultConfig returns the shipped scoring targets. Speed is weighted
// slightly over form for every category except body shots, where placement
// matters as much as pace.
func DefaultConfig() Config {
	return Config{
		Categories: map[classifier.Category]CategoryIdeal{
			classifier.CategoryStraight: {
				IdealSpeed:     2.4,
				IdealAngle:     172,
				AngleTolerance: 12,
				SpeedWeight:    0.55,
				FormWeight:     0.45,
			},
			classifier.CategoryHook: {
				IdealSpeed:     2.2,
				IdealAngle:     90,
				AngleTolerance: 20,
				SpeedWeight:    0.55,
				FormWeight:     0.45,
			},
			classifier.CategoryUppercut: {
				IdealSpeed:     2.0,
				IdealAngle:     65,
				AngleTolerance: 20,
				SpeedWeight:    0.55,
				FormWeight:     0.45,
			},
			classifier.CategoryBody: {
				IdealSpeed:     1.8,
				IdealAngle:     120,
				AngleTolerance: 30,
				SpeedWeight:    0.50,
				FormWeight:     0.50,
			},
		},
		OverspeedFloor: 40,
	}
}

// Validate rejects scoring targets that would corrupt every score
func (c Config) Validate() error {
	if len(c.Categories) == 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "scoring category table is empty")
	}

	required := []classifier.Category{
		classifier.CategoryStraight,
		classifier.CategoryHook,
		classifier.CategoryUppercut,
		classifier.CategoryBody,
	}
	for _, cat := range required {
		ideal, ok := c.Categories[cat]
		if !ok {
			return errors.Wrapf(errors.ErrInvalidConfig, "missing scoring targets for category %q", cat)
		}
		if ideal.IdealSpeed <= 0 {
			return errors.Wrapf(errors.ErrInvalidConfig, "category %q: ideal speed must be positive", cat)
		}
		if ideal.IdealAngle < 0 || ideal.IdealAngle > 180 {
			return errors.Wrapf(errors.ErrInvalidConfig, "category %q: ideal angle must stay within [0,180]", cat)
		}
		if ideal.AngleTolerance <= 0 {
			return errors.Wrapf(errors.ErrInvalidConfig, "category %q: angle tolerance band must have positive width", cat)
		}
		weightSum := ideal.SpeedWeight + ideal.FormWeight
		if ideal.SpeedWeight < 0 || ideal.FormWeight < 0 || weightSum < 0.999 || weightSum > 1.001 {
			return errors.Wrapf(errors.ErrInvalidConfig, "category %q: sub-score weights must be non-negative and sum to 1", cat)
		}
	}

	if c.OverspeedFloor < 0 || c.OverspeedFloor > 100 {
		return errors.Wrap(errors.ErrInvalidConfig, "overspeed floor must stay within [0,100]")
	}

	return nil
}
