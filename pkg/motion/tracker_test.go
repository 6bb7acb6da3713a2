package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"punchcoach-server/pkg/pose"
)

func TestFirstObservationIsZero(t *testing.T) {
	tracker := NewTracker(5)

	speed := tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.5, Y: 0.5}, time.Now())
	assert.Equal(t, 0.0, speed)
}

func TestZeroElapsedTimeGuard(t *testing.T) {
	tracker := NewTracker(5)
	now := time.Now()

	tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.1, Y: 0.1}, now)
	speed := tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.9, Y: 0.9}, now)

	// Same timestamp must not divide by zero; the sample reads as zero speed
	assert.Equal(t, 0.0, speed)
}

func TestMovingAverageSmoothing(t *testing.T) {
	tracker := NewTracker(5)
	start := time.Now()

	// First sample: 0. Second sample: 0.1 units over 100ms = 1.0 u/s.
	tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.5, Y: 0.5}, start)
	speed := tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.6, Y: 0.5}, start.Add(100*time.Millisecond))

	// Mean of [0, 1.0]
	assert.InDelta(t, 0.5, speed, 1e-9)

	// Third sample, same pace
	speed = tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.7, Y: 0.5}, start.Add(200*time.Millisecond))
	assert.InDelta(t, 2.0/3.0, speed, 1e-9)
}

func TestWindowBound(t *testing.T) {
	tracker := NewTracker(3)
	start := time.Now()

	// Constant 1.0 u/s motion; after the zero first sample ages out of the
	// window the average converges to the instantaneous speed.
	x := 0.0
	for i := 0; i < 6; i++ {
		tracker.UpdateSpeed(pose.RightWrist, pose.Point{X: x, Y: 0}, start.Add(time.Duration(i)*100*time.Millisecond))
		x += 0.1
	}

	assert.InDelta(t, 1.0, tracker.Speed(pose.RightWrist), 1e-9)
}

func TestPerLandmarkIsolation(t *testing.T) {
	tracker := NewTracker(5)
	start := time.Now()

	tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.0, Y: 0.0}, start)
	tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.5, Y: 0.0}, start.Add(100*time.Millisecond))

	// The right wrist never moved; its history is independent
	assert.Equal(t, 0.0, tracker.Speed(pose.RightWrist))
	assert.Greater(t, tracker.Speed(pose.LeftWrist), 0.0)
}

func TestReset(t *testing.T) {
	tracker := NewTracker(5)
	start := time.Now()

	tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.0, Y: 0.0}, start)
	tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.5, Y: 0.0}, start.Add(100*time.Millisecond))
	tracker.Reset()

	assert.Equal(t, 0.0, tracker.Speed(pose.LeftWrist))

	// After a reset the next observation is a first observation again
	speed := tracker.UpdateSpeed(pose.LeftWrist, pose.Point{X: 0.9, Y: 0.9}, start.Add(200*time.Millisecond))
	assert.Equal(t, 0.0, speed)
}
