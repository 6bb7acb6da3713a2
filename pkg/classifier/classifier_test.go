package classifier

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punchcoach-server/pkg/motion"
	"punchcoach-server/pkg/pose"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := StrictConfig()
	require.NoError(t, cfg.Validate())
	return New(cfg, logger)
}

func frameAt(ts time.Time) *pose.Frame {
	return &pose.Frame{Landmarks: map[pose.Landmark]pose.Point{}, Timestamp: ts}
}

// Hand-built side kinematics that satisfy exactly one strict-preset rule
var (
	idleSide     = SideKinematics{Valid: true, Speed: 0.1, ElbowAngle: 40, Extension: 0.2, ShoulderOffset: -0.05, HipOffset: -0.3}
	straightSide = SideKinematics{Valid: true, Speed: 2.0, ElbowAngle: 175, Extension: 1.5, ShoulderOffset: 0, HipOffset: -0.3}
	hookSide     = SideKinematics{Valid: true, Speed: 1.5, ElbowAngle: 90, Extension: 1.0, ShoulderOffset: -0.05, HipOffset: -0.3}
	uppercutSide = SideKinematics{Valid: true, Speed: 1.5, ElbowAngle: 70, Extension: 0.5, ShoulderOffset: 0.15, HipOffset: -0.2}
	bodySide     = SideKinematics{Valid: true, Speed: 1.2, ElbowAngle: 160, Extension: 0.8, ShoulderOffset: 0.30, HipOffset: 0.0}
)

func TestIdleFramesProduceNoClass(t *testing.T) {
	c := newTestClassifier(t)

	k := &Kinematics{Left: idleSide, Right: idleSide}
	result := c.Classify(frameAt(time.Now()), k)

	assert.Equal(t, ClassNone, result.Class)
	assert.Equal(t, 0.0, result.Confidence)
	assert.False(t, result.Fired())
}

func TestEachClassFires(t *testing.T) {
	cases := []struct {
		name string
		kin  *Kinematics
		want PunchClass
	}{
		{"jab", &Kinematics{Left: straightSide, Right: idleSide}, ClassJab},
		{"cross", &Kinematics{Left: idleSide, Right: straightSide}, ClassCross},
		{"left hook", &Kinematics{Left: hookSide, Right: idleSide}, ClassLeftHook},
		{"right hook", &Kinematics{Left: idleSide, Right: hookSide}, ClassRightHook},
		{"left uppercut", &Kinematics{Left: uppercutSide, Right: idleSide}, ClassLeftUppercut},
		{"right uppercut", &Kinematics{Left: idleSide, Right: uppercutSide}, ClassRightUppercut},
		{"left body", &Kinematics{Left: bodySide, Right: idleSide}, ClassLeftBody},
		{"right body", &Kinematics{Left: idleSide, Right: bodySide}, ClassRightBody},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClassifier(t)
			result := c.Classify(frameAt(time.Now()), tc.kin)

			assert.Equal(t, tc.want, result.Class)
			assert.GreaterOrEqual(t, result.Confidence, 60.0)
			assert.LessOrEqual(t, result.Confidence, 100.0)
		})
	}
}

func TestAtMostOneClassPerFrame(t *testing.T) {
	c := newTestClassifier(t)

	// Both hands throw qualifying straights in the same frame; priority
	// order makes the jab win and nothing else is evaluated.
	k := &Kinematics{Left: straightSide, Right: straightSide}
	result := c.Classify(frameAt(time.Now()), k)

	assert.Equal(t, ClassJab, result.Class)
}

func TestCooldownBlocksSameClassRepeat(t *testing.T) {
	c := newTestClassifier(t)
	start := time.Now()
	k := &Kinematics{Left: straightSide, Right: idleSide}

	first := c.Classify(frameAt(start), k)
	assert.Equal(t, ClassJab, first.Class)

	// Second qualifying jab inside the 500ms window is debounced
	second := c.Classify(frameAt(start.Add(300*time.Millisecond)), k)
	assert.Equal(t, ClassNone, second.Class)

	// Once the window elapses the jab may fire again
	third := c.Classify(frameAt(start.Add(600*time.Millisecond)), k)
	assert.Equal(t, ClassJab, third.Class)
}

func TestAlternatingHandsBypassCooldown(t *testing.T) {
	c := newTestClassifier(t)
	start := time.Now()

	jab := c.Classify(frameAt(start), &Kinematics{Left: straightSide, Right: idleSide})
	assert.Equal(t, ClassJab, jab.Class)

	// A cross 100ms later is a different class, so the gate opens
	cross := c.Classify(frameAt(start.Add(100*time.Millisecond)), &Kinematics{Left: idleSide, Right: straightSide})
	assert.Equal(t, ClassCross, cross.Class)

	// And back to the jab, still well inside its cooldown window
	again := c.Classify(frameAt(start.Add(200*time.Millisecond)), &Kinematics{Left: straightSide, Right: idleSide})
	assert.Equal(t, ClassJab, again.Class)
}

func TestInvalidSidesNeverFire(t *testing.T) {
	c := newTestClassifier(t)

	k := &Kinematics{} // both sides missing landmarks
	result := c.Classify(frameAt(time.Now()), k)
	assert.Equal(t, ClassNone, result.Class)
}

func TestNilInputs(t *testing.T) {
	c := newTestClassifier(t)

	assert.Equal(t, ClassNone, c.Classify(nil, &Kinematics{}).Class)
	assert.Equal(t, ClassNone, c.Classify(frameAt(time.Now()), nil).Class)
}

func TestResetClearsCooldowns(t *testing.T) {
	c := newTestClassifier(t)
	start := time.Now()
	k := &Kinematics{Left: straightSide, Right: idleSide}

	assert.Equal(t, ClassJab, c.Classify(frameAt(start), k).Class)
	c.Reset()

	// Inside the old window, but the table was cleared
	assert.Equal(t, ClassJab, c.Classify(frameAt(start.Add(100*time.Millisecond)), k).Class)
}

func TestSpeedThresholdBoundary(t *testing.T) {
	c := newTestClassifier(t)
	rule := StrictConfig().Rules[ClassJab]

	below := straightSide
	below.Speed = rule.MinSpeed - 0.01
	assert.Equal(t, ClassNone, c.Classify(frameAt(time.Now()), &Kinematics{Left: below, Right: idleSide}).Class)

	at := straightSide
	at.Speed = rule.MinSpeed
	assert.Equal(t, ClassJab, c.Classify(frameAt(time.Now()), &Kinematics{Left: at, Right: idleSide}).Class)
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, StrictConfig().Validate())
	assert.NoError(t, ArcadeConfig().Validate())

	t.Run("negative cooldown", func(t *testing.T) {
		cfg := StrictConfig()
		rule := cfg.Rules[ClassJab]
		rule.Cooldown = -time.Second
		cfg.Rules[ClassJab] = rule
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty angle band", func(t *testing.T) {
		cfg := StrictConfig()
		rule := cfg.Rules[ClassLeftHook]
		rule.MinElbowAngle = 120
		rule.MaxElbowAngle = 120
		cfg.Rules[ClassLeftHook] = rule
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing class", func(t *testing.T) {
		cfg := StrictConfig()
		delete(cfg.Rules, ClassRightBody)
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty table", func(t *testing.T) {
		assert.Error(t, Config{}.Validate())
	})
}

func TestConfigForPreset(t *testing.T) {
	strict, err := ConfigForPreset(PresetStrict)
	assert.NoError(t, err)

	arcade, err := ConfigForPreset(PresetArcade)
	assert.NoError(t, err)

	// Arcade is the forgiving table: lower floors, shorter cooldowns
	assert.Less(t, arcade.Rules[ClassJab].MinSpeed, strict.Rules[ClassJab].MinSpeed)
	assert.Less(t, arcade.Rules[ClassJab].Cooldown, strict.Rules[ClassJab].Cooldown)

	_, err = ConfigForPreset("tournament")
	assert.Error(t, err)
}

func TestExtractKinematics(t *testing.T) {
	tracker := motion.NewTracker(motion.DefaultWindow)
	start := time.Now()

	frame := fullBodyFrame(start)
	k := Extract(frame, tracker)

	require.True(t, k.Left.Valid)
	require.True(t, k.Right.Valid)

	// Straight left arm laid out horizontally
	assert.InDelta(t, 180.0, k.Left.ElbowAngle, 1.0)
	assert.Greater(t, k.Left.Extension, 1.0)
	assert.InDelta(t, 0.0, k.Left.ShoulderOffset, 0.01)
	assert.Less(t, k.Left.HipOffset, 0.0)

	// First observation, no speed yet
	assert.Equal(t, 0.0, k.Left.Speed)
}

func TestExtractMissingLandmarks(t *testing.T) {
	tracker := motion.NewTracker(motion.DefaultWindow)
	frame := fullBodyFrame(time.Now())
	delete(frame.Landmarks, pose.LeftElbow)

	k := Extract(frame, tracker)
	assert.False(t, k.Left.Valid)
	assert.True(t, k.Right.Valid)
}

// fullBodyFrame lays out a frame with the left arm fully extended and the
// right arm in guard.
func fullBodyFrame(ts time.Time) *pose.Frame {
	return &pose.Frame{
		Timestamp: ts,
		Landmarks: map[pose.Landmark]pose.Point{
			pose.Nose:          {X: 0.50, Y: 0.20},
			pose.LeftShoulder:  {X: 0.42, Y: 0.35},
			pose.RightShoulder: {X: 0.58, Y: 0.35},
			pose.LeftElbow:     {X: 0.26, Y: 0.35},
			pose.LeftWrist:     {X: 0.10, Y: 0.35},
			pose.RightElbow:    {X: 0.60, Y: 0.45},
			pose.RightWrist:    {X: 0.55, Y: 0.30},
			pose.LeftHip:       {X: 0.44, Y: 0.62},
			pose.RightHip:      {X: 0.56, Y: 0.62},
		},
	}
}
