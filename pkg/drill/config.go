package drill

import (
	"time"

	"punchcoach-server/pkg/errors"
)

// Mode selects how the scheduler picks targets
type Mode string

const (
	// ModeRandom announces a random unlocked punch under a reaction budget
	ModeRandom Mode = "random"

	// ModeSequence walks fixed named combinations step by step, with no
	// per-step timeout and no failure path
	ModeSequence Mode = "sequence"
)

// Config holds the scheduler tuning knobs
type Config struct {
	// BaseReaction is the level-1 reaction budget
	BaseReaction time.Duration `json:"base_reaction"`

	// ReactionDecay shrinks the budget per level gained
	ReactionDecay time.Duration `json:"reaction_decay"`

	// MinReaction is the budget floor the decay never crosses
	MinReaction time.Duration `json:"min_reaction"`

	// AnnounceDelay is the pause between resolving one challenge and
	// announcing the next
	AnnounceDelay time.Duration `json:"announce_delay"`

	// HitsPerLevel is the hit quota that advances the level
	HitsPerLevel int `json:"hits_per_level"`

	// Unlock levels per punch category. Straights are always available.
	HookUnlockLevel     int `json:"hook_unlock_level"`
	UppercutUnlockLevel int `json:"uppercut_unlock_level"`
	BodyUnlockLevel     int `json:"body_unlock_level"`

	// ComboIdleReset breaks the combo when no hit lands within the window
	ComboIdleReset time.Duration `json:"combo_idle_reset"`
}

// DefaultConfig returns the shipped scheduler tuning
func DefaultConfig() Config {
	return Config{
		BaseReaction:        3000 * time.Millisecond,
		ReactionDecay:       150 * time.Millisecond,
		MinReaction:         1200 * time.Millisecond,
		AnnounceDelay:       400 * time.Millisecond,
		HitsPerLevel:        10,
		HookUnlockLevel:     3,
		UppercutUnlockLevel: 5,
		BodyUnlockLevel:     7,
		ComboIdleReset:      3000 * time.Millisecond,
	}
}

// Validate rejects scheduler tuning that would wedge or corrupt a session
func (c Config) Validate() error {
	if c.BaseReaction <= 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "scheduler: base reaction budget must be positive")
	}
	if c.ReactionDecay < 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "scheduler: reaction decay must not be negative")
	}
	if c.MinReaction <= 0 || c.MinReaction > c.BaseReaction {
		return errors.Wrap(errors.ErrInvalidConfig, "scheduler: reaction floor must be positive and not exceed the base budget")
	}
	if c.AnnounceDelay < 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "scheduler: announce delay must not be negative")
	}
	if c.HitsPerLevel <= 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "scheduler: hits per level must be positive")
	}
	if c.HookUnlockLevel < 1 || c.UppercutUnlockLevel < 1 || c.BodyUnlockLevel < 1 {
		return errors.Wrap(errors.ErrInvalidConfig, "scheduler: unlock levels must be at least 1")
	}
	if c.ComboIdleReset <= 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "scheduler: combo idle reset window must be positive")
	}
	return nil
}

// ReactionBudget computes the reaction window for a level: it decays linearly
// with level down to the floor.
func (c Config) ReactionBudget(level int) time.Duration {
	budget := c.BaseReaction - time.Duration(level-1)*c.ReactionDecay
	if budget < c.MinReaction {
		return c.MinReaction
	}
	return budget
}
