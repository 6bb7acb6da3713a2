package classifier

import (
	"time"

	"punchcoach-server/pkg/errors"
)

// Rule is the threshold predicate set for one punch class. A frame matches
// when every bound is satisfied by the throwing hand's kinematics.
// All bounds are tunable configuration: lowering MinSpeed makes detection
// easier, widening the offset bands tolerates sloppier positioning.
type Rule struct {
	// MinSpeed is the minimum smoothed wrist speed, in frame units per second
	MinSpeed float64 `json:"min_speed"`

	// MinElbowAngle / MaxElbowAngle bound the elbow angle in degrees
	MinElbowAngle float64 `json:"min_elbow_angle"`
	MaxElbowAngle float64 `json:"max_elbow_angle"`

	// MinExtension is the minimum horizontal wrist-to-shoulder distance as a
	// ratio of shoulder width
	MinExtension float64 `json:"min_extension"`

	// ShoulderOffsetMin / ShoulderOffsetMax bound wristY - shoulderY.
	// Positive is below the shoulder.
	ShoulderOffsetMin float64 `json:"shoulder_offset_min"`
	ShoulderOffsetMax float64 `json:"shoulder_offset_max"`

	// HipOffsetMin / HipOffsetMax bound wristY - hipY
	HipOffsetMin float64 `json:"hip_offset_min"`
	HipOffsetMax float64 `json:"hip_offset_max"`

	// Cooldown is the minimum interval before the same class may fire again.
	// A different class firing in between bypasses the gate.
	Cooldown time.Duration `json:"cooldown"`
}

// matches reports whether the side kinematics satisfy every bound
func (r Rule) matches(k SideKinematics) bool {
	if !k.Valid {
		return false
	}
	if k.Speed < r.MinSpeed {
		return false
	}
	if k.ElbowAngle < r.MinElbowAngle || k.ElbowAngle > r.MaxElbowAngle {
		return false
	}
	if k.Extension < r.MinExtension {
		return false
	}
	if k.ShoulderOffset < r.ShoulderOffsetMin || k.ShoulderOffset > r.ShoulderOffsetMax {
		return false
	}
	if k.HipOffset < r.HipOffsetMin || k.HipOffset > r.HipOffsetMax {
		return false
	}
	return true
}

// Config holds the full rule table for the classifier
type Config struct {
	Rules map[PunchClass]Rule `json:"rules"`
}

// Preset names for the two shipped rule tables
const (
	PresetStrict = "strict"
	PresetArcade = "arcade"
)

// StrictConfig returns the competition-leaning rule table: higher speed
// floors, tighter angle bands, longer cooldowns.
func StrictConfig() Config {
	straight := Rule{
		MinSpeed:          1.2,
		MinElbowAngle:     150,
		MaxElbowAngle:     180,
		MinExtension:      1.0,
		ShoulderOffsetMin: -0.12,
		ShoulderOffsetMax: 0.12,
		HipOffsetMin:      -1.0,
		HipOffsetMax:      -0.05,
		Cooldown:          500 * time.Millisecond,
	}
	hook := Rule{
		MinSpeed:          1.0,
		MinElbowAngle:     55,
		MaxElbowAngle:     125,
		MinExtension:      0.4,
		ShoulderOffsetMin: -0.15,
		ShoulderOffsetMax: 0.12,
		HipOffsetMin:      -1.0,
		HipOffsetMax:      -0.05,
		Cooldown:          600 * time.Millisecond,
	}
	uppercut := Rule{
		MinSpeed:          0.9,
		MinElbowAngle:     40,
		MaxElbowAngle:     100,
		MinExtension:      0,
		ShoulderOffsetMin: 0.03,
		ShoulderOffsetMax: 0.35,
		HipOffsetMin:      -0.60,
		HipOffsetMax:      -0.02,
		Cooldown:          600 * time.Millisecond,
	}
	body := Rule{
		MinSpeed:          0.8,
		MinElbowAngle:     0,
		MaxElbowAngle:     180,
		MinExtension:      0.2,
		ShoulderOffsetMin: 0.25,
		ShoulderOffsetMax: 1.0,
		HipOffsetMin:      -0.12,
		HipOffsetMax:      0.50,
		Cooldown:          700 * time.Millisecond,
	}

	return Config{
		Rules: map[PunchClass]Rule{
			ClassJab:           straight,
			ClassCross:         straight,
			ClassLeftHook:      hook,
			ClassRightHook:     hook,
			ClassLeftUppercut:  uppercut,
			ClassRightUppercut: uppercut,
			ClassLeftBody:      body,
			ClassRightBody:     body,
		},
	}
}

// ArcadeConfig returns the forgiving rule table: lower speed floors, wider
// bands, shorter cooldowns, tuned for casual play and low-end cameras.
func ArcadeConfig() Config {
	cfg := StrictConfig()
	for class, rule := range cfg.Rules {
		rule.MinSpeed *= 0.65
		rule.MinExtension *= 0.75
		rule.MinElbowAngle -= 10
		if rule.MinElbowAngle < 0 {
			rule.MinElbowAngle = 0
		}
		rule.MaxElbowAngle += 10
		if rule.MaxElbowAngle > 180 {
			rule.MaxElbowAngle = 180
		}
		rule.ShoulderOffsetMin -= 0.05
		rule.ShoulderOffsetMax += 0.05
		rule.HipOffsetMin -= 0.05
		rule.HipOffsetMax += 0.05
		rule.Cooldown = 350 * time.Millisecond
		cfg.Rules[class] = rule
	}
	return cfg
}

// ConfigForPreset resolves a preset name to its rule table
func ConfigForPreset(name string) (Config, error) {
	switch name {
	case PresetStrict, "":
		return StrictConfig(), nil
	case PresetArcade:
		return ArcadeConfig(), nil
	default:
		return Config{}, errors.Wrapf(errors.ErrInvalidConfig, "unknown classifier preset %q", name)
	}
}

// Validate rejects rule tables that would silently corrupt classification
func (c Config) Validate() error {
	if len(c.Rules) == 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "classifier rule table is empty")
	}

	for _, class := range Priority {
		rule, ok := c.Rules[class]
		if !ok {
			return errors.Wrapf(errors.ErrInvalidConfig, "missing rule for class %q", class)
		}
		if rule.MinSpeed < 0 {
			return errors.Wrapf(errors.ErrInvalidConfig, "class %q: min speed must not be negative", class)
		}
		if rule.Cooldown < 0 {
			return errors.Wrapf(errors.ErrInvalidConfig, "class %q: cooldown must not be negative", class)
		}
		if rule.MinElbowAngle < 0 || rule.MaxElbowAngle > 180 {
			return errors.Wrapf(errors.ErrInvalidConfig, "class %q: elbow angle bounds must stay within [0,180]", class)
		}
		if rule.MinElbowAngle >= rule.MaxElbowAngle {
			return errors.Wrapf(errors.ErrInvalidConfig, "class %q: elbow angle band is empty", class)
		}
		if rule.ShoulderOffsetMin >= rule.ShoulderOffsetMax {
			return errors.Wrapf(errors.ErrInvalidConfig, "class %q: shoulder offset band is empty", class)
		}
		if rule.HipOffsetMin >= rule.HipOffsetMax {
			return errors.Wrapf(errors.ErrInvalidConfig, "class %q: hip offset band is empty", class)
		}
		if rule.MinExtension < 0 {
			return errors.Wrapf(errors.ErrInvalidConfig, "class %q: min extension must not be negative", class)
		}
	}

	return nil
}
