package classifier

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/pose"
)

// Result is the per-frame classification output. Class is ClassNone when no
// rule fired, in which case every other field is zero.
type Result struct {
	Class      PunchClass `json:"class"`
	Confidence float64    `json:"confidence"`
	Speed      float64    `json:"speed"`
	Angle      float64    `json:"angle"`
	FormTip    string     `json:"form_tip,omitempty"`
}

// Fired reports whether the frame produced a punch
func (r Result) Fired() bool {
	return r.Class != ClassNone
}

// Classifier evaluates the priority-ordered rule list against per-frame
// kinematics. It owns the per-class cooldown table; everything else is
// stateless per call. One Classifier belongs to one drill session.
type Classifier struct {
	mutex     sync.Mutex
	config    Config
	logger    *logrus.Entry
	lastFire  map[PunchClass]time.Time
	lastClass PunchClass
}

// New creates a classifier from a validated rule table
func New(config Config, logger *logrus.Logger) *Classifier {
	return &Classifier{
		config:   config,
		logger:   logger.WithField("component", "classifier"),
		lastFire: make(map[PunchClass]time.Time),
	}
}

// Classify evaluates the frame against the rule list and returns at most one
// punch. Classes are checked in Priority order and the first one whose
// predicates hold and whose cooldown gate is open wins the frame; later
// classes are not evaluated. Incomplete frames return ClassNone.
func (c *Classifier) Classify(frame *pose.Frame, k *Kinematics) Result {
	if frame == nil || k == nil {
		return Result{Class: ClassNone}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := frame.Timestamp
	for _, class := range Priority {
		rule := c.config.Rules[class]
		side := k.ForHand(class.Hand())

		if !rule.matches(side) {
			continue
		}
		if !c.gateOpen(class, rule, now) {
			// Debounced repeat of the same class; keep scanning so an
			// alternating combination on the other hand still fires.
			continue
		}

		c.lastFire[class] = now
		c.lastClass = class

		result := Result{
			Class:      class,
			Confidence: confidence(side, rule),
			Speed:      side.Speed,
			Angle:      side.ElbowAngle,
			FormTip:    formTip(class, side),
		}

		c.logger.WithFields(logrus.Fields{
			"class":      class,
			"speed":      result.Speed,
			"angle":      result.Angle,
			"confidence": result.Confidence,
		}).Debug("Punch classified")

		return result
	}

	return Result{Class: ClassNone}
}

// gateOpen implements the cooldown rule: a class may re-fire once its own
// cooldown has elapsed, or immediately when it differs from the previously
// fired class. The bypass is what lets a jab-cross land inside one window.
func (c *Classifier) gateOpen(class PunchClass, rule Rule, now time.Time) bool {
	if class != c.lastClass {
		return true
	}
	last, ok := c.lastFire[class]
	if !ok {
		return true
	}
	return now.Sub(last) >= rule.Cooldown
}

// Reset clears the cooldown table, called at drill start and stop
func (c *Classifier) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.lastFire = make(map[PunchClass]time.Time)
	c.lastClass = ClassNone
}

// confidence maps the speed margin over the class floor to [60,100]. A punch
// at exactly the threshold reads 60; one at double the threshold reads 100.
func confidence(k SideKinematics, rule Rule) float64 {
	if rule.MinSpeed <= 0 {
		return 100
	}
	margin := (k.Speed - rule.MinSpeed) / rule.MinSpeed
	if margin > 1 {
		margin = 1
	}
	if margin < 0 {
		margin = 0
	}
	return 60 + 40*margin
}

// formTip produces a short advisory when the matched punch's mechanics are
// off the category ideal. Empty when form is acceptable.
func formTip(class PunchClass, k SideKinematics) string {
	switch class.Category() {
	case CategoryStraight:
		if k.ElbowAngle < 160 {
			return "Extend fully, snap the arm straight at the end"
		}
	case CategoryHook:
		if k.ElbowAngle < 70 || k.ElbowAngle > 110 {
			return "Lock the elbow near 90 degrees and pivot through"
		}
	case CategoryUppercut:
		if k.ElbowAngle > 90 {
			return "Drop the hand lower and drive up from the legs"
		}
	case CategoryBody:
		if k.ElbowAngle > 150 {
			return "Bend the knees and dig in, don't reach down"
		}
	}
	return ""
}
