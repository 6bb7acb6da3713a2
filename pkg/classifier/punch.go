// Package classifier turns smoothed keypoint kinematics into discrete punch
// events. Detection is a fixed priority-ordered rule list with a per-class
// cooldown gate, so an ambiguous frame always resolves the same way and a held
// position never re-fires the same punch.
package classifier

// PunchClass is one of the discrete punch actions the engine recognizes
type PunchClass string

const (
	ClassNone          PunchClass = ""
	ClassJab           PunchClass = "jab"
	ClassCross         PunchClass = "cross"
	ClassLeftHook      PunchClass = "left_hook"
	ClassRightHook     PunchClass = "right_hook"
	ClassLeftUppercut  PunchClass = "left_uppercut"
	ClassRightUppercut PunchClass = "right_uppercut"
	ClassLeftBody      PunchClass = "left_body"
	ClassRightBody     PunchClass = "right_body"
)

// Category groups punch classes by mechanics. Scoring ideals and drill
// bonuses are defined per category rather than per class.
type Category string

const (
	CategoryStraight Category = "straight"
	CategoryHook     Category = "hook"
	CategoryUppercut Category = "uppercut"
	CategoryBody     Category = "body"
)

// Hand identifies which side throws a punch class
type Hand string

const (
	HandLeft  Hand = "left"
	HandRight Hand = "right"
)

// Priority is the fixed evaluation order of the rule list: straight punches
// before hooks, hooks before uppercuts, uppercuts before body shots, both
// sides of a category before the next category. The first satisfied class
// wins the frame.
var Priority = []PunchClass{
	ClassJab,
	ClassCross,
	ClassLeftHook,
	ClassRightHook,
	ClassLeftUppercut,
	ClassRightUppercut,
	ClassLeftBody,
	ClassRightBody,
}

// AllClasses lists every recognizable punch class in priority order
func AllClasses() []PunchClass {
	out := make([]PunchClass, len(Priority))
	copy(out, Priority)
	return out
}

// Category returns the mechanical category of the class
func (p PunchClass) Category() Category {
	switch p {
	case ClassJab, ClassCross:
		return CategoryStraight
	case ClassLeftHook, ClassRightHook:
		return CategoryHook
	case ClassLeftUppercut, ClassRightUppercut:
		return CategoryUppercut
	default:
		return CategoryBody
	}
}

// Hand returns the side that throws this class
func (p PunchClass) Hand() Hand {
	switch p {
	case ClassJab, ClassLeftHook, ClassLeftUppercut, ClassLeftBody:
		return HandLeft
	default:
		return HandRight
	}
}

// Display returns a human-readable name for announcements
func (p PunchClass) Display() string {
	switch p {
	case ClassJab:
		return "Jab"
	case ClassCross:
		return "Cross"
	case ClassLeftHook:
		return "Left Hook"
	case ClassRightHook:
		return "Right Hook"
	case ClassLeftUppercut:
		return "Left Uppercut"
	case ClassRightUppercut:
		return "Right Uppercut"
	case ClassLeftBody:
		return "Left Body Shot"
	case ClassRightBody:
		return "Right Body Shot"
	default:
		return "None"
	}
}
