package classifier

import (
	"punchcoach-server/pkg/motion"
	"punchcoach-server/pkg/pose"
)

// SideKinematics holds the derived metrics for one arm on one frame.
// Vertical offsets are in normalized frame units with Y growing downward, so
// a positive ShoulderOffset means the wrist sits below the shoulder.
type SideKinematics struct {
	// Valid is false when the frame was missing landmarks for this side
	Valid bool

	// Speed is the smoothed wrist speed in frame units per second
	Speed float64

	// ElbowAngle is the shoulder-elbow-wrist angle in degrees [0,180]
	ElbowAngle float64

	// Extension is the horizontal wrist-to-shoulder distance expressed as a
	// ratio of the current shoulder width
	Extension float64

	// ShoulderOffset is wristY - shoulderY
	ShoulderOffset float64

	// HipOffset is wristY - hipY
	HipOffset float64
}

// Kinematics holds both sides' metrics for a single frame
type Kinematics struct {
	Left  SideKinematics
	Right SideKinematics
}

// side groups the landmark IDs that make up one arm's chain
type side struct {
	shoulder, elbow, wrist, hip pose.Landmark
}

var (
	leftSide  = side{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip}
	rightSide = side{pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip}
)

// Extract updates the motion tracker with the frame's wrist positions and
// computes per-side kinematics. Sides with missing landmarks come back with
// Valid=false and are skipped by the rule list; the tracker is only fed
// landmarks actually present, so a dropped point never produces a phantom
// speed spike.
func Extract(frame *pose.Frame, tracker *motion.Tracker) Kinematics {
	var k Kinematics
	k.Left = extractSide(frame, tracker, leftSide)
	k.Right = extractSide(frame, tracker, rightSide)
	return k
}

func extractSide(frame *pose.Frame, tracker *motion.Tracker, s side) SideKinematics {
	if !frame.Has(s.shoulder, s.elbow, s.wrist, s.hip, pose.LeftShoulder, pose.RightShoulder) {
		return SideKinematics{}
	}

	shoulder, _ := frame.At(s.shoulder)
	elbow, _ := frame.At(s.elbow)
	wrist, _ := frame.At(s.wrist)
	hip, _ := frame.At(s.hip)
	ls, _ := frame.At(pose.LeftShoulder)
	rs, _ := frame.At(pose.RightShoulder)

	speed := tracker.UpdateSpeed(s.wrist, wrist, frame.Timestamp)

	shoulderWidth := pose.Distance(ls, rs)
	extension := 0.0
	if shoulderWidth > 0 {
		dx := wrist.X - shoulder.X
		if dx < 0 {
			dx = -dx
		}
		extension = dx / shoulderWidth
	}

	return SideKinematics{
		Valid:          true,
		Speed:          speed,
		ElbowAngle:     pose.Angle(shoulder, elbow, wrist),
		Extension:      extension,
		ShoulderOffset: wrist.Y - shoulder.Y,
		HipOffset:      wrist.Y - hip.Y,
	}
}

// ForHand returns the kinematics of the given side
func (k *Kinematics) ForHand(h Hand) SideKinematics {
	if h == HandLeft {
		return k.Left
	}
	return k.Right
}
