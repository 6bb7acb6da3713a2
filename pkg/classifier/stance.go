package classifier

import (
	"math"

	"punchcoach-server/pkg/errors"
	"punchcoach-server/pkg/pose"
)

// StanceAssessment is the advisory output of the stance check. Tips are
// ordered by check sequence: shoulder level first, then squareness, then head
// position. IsGood is true only when no check flagged.
type StanceAssessment struct {
	IsGood bool     `json:"is_good"`
	Tips   []string `json:"tips,omitempty"`
}

// StanceThresholds are the tunable bounds for the stance checks
type StanceThresholds struct {
	// MaxShoulderTilt is the vertical shoulder delta, as a fraction of frame
	// height, above which the shoulders count as uneven
	MaxShoulderTilt float64 `json:"max_shoulder_tilt"`

	// MinShoulderWidth is the horizontal shoulder separation below which the
	// torso counts as too square
	MinShoulderWidth float64 `json:"min_shoulder_width"`

	// MaxHeadOffset is the nose's horizontal distance from the shoulder
	// midpoint above which the head counts as off-center
	MaxHeadOffset float64 `json:"max_head_offset"`
}

// DefaultStanceThresholds returns the shipped stance bounds
func DefaultStanceThresholds() StanceThresholds {
	return StanceThresholds{
		MaxShoulderTilt:  0.05,
		MinShoulderWidth: 0.08,
		MaxHeadOffset:    0.10,
	}
}

// Validate rejects degenerate stance bounds
func (t StanceThresholds) Validate() error {
	if t.MaxShoulderTilt <= 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "stance: max shoulder tilt must be positive")
	}
	if t.MinShoulderWidth <= 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "stance: min shoulder width must be positive")
	}
	if t.MaxHeadOffset <= 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "stance: max head offset must be positive")
	}
	return nil
}

// AnalyzeStance evaluates upper-body alignment on a single frame,
// independent of any punch. Frames missing the nose or either shoulder get a
// neutral good assessment since there is nothing to judge.
func AnalyzeStance(frame *pose.Frame, thresholds StanceThresholds) StanceAssessment {
	if frame == nil || !frame.Has(pose.Nose, pose.LeftShoulder, pose.RightShoulder) {
		return StanceAssessment{IsGood: true}
	}

	nose, _ := frame.At(pose.Nose)
	ls, _ := frame.At(pose.LeftShoulder)
	rs, _ := frame.At(pose.RightShoulder)

	var tips []string

	if math.Abs(ls.Y-rs.Y) > thresholds.MaxShoulderTilt {
		tips = append(tips, "Level your shoulders")
	}

	if math.Abs(ls.X-rs.X) < thresholds.MinShoulderWidth {
		tips = append(tips, "Angle your body, you're standing too square")
	}

	mid := pose.Midpoint(ls, rs)
	if math.Abs(nose.X-mid.X) > thresholds.MaxHeadOffset {
		tips = append(tips, "Keep your head centered over your stance")
	}

	return StanceAssessment{
		IsGood: len(tips) == 0,
		Tips:   tips,
	}
}
