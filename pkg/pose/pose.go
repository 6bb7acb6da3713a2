// Package pose defines the body-keypoint data model delivered by the external
// pose-estimation provider, plus the 2D geometry helpers the engine derives
// punch kinematics from.
package pose

import (
	"math"
	"time"
)

// Landmark identifies a tracked body keypoint. Indices follow the MediaPipe
// pose convention for the subset of upper-body points the engine consumes.
type Landmark int

const (
	Nose          Landmark = 0
	LeftShoulder  Landmark = 11
	RightShoulder Landmark = 12
	LeftElbow     Landmark = 13
	RightElbow    Landmark = 14
	LeftWrist     Landmark = 15
	RightWrist    Landmark = 16
	LeftHip       Landmark = 23
	RightHip      Landmark = 24
)

// String returns the landmark name
func (l Landmark) String() string {
	switch l {
	case Nose:
		return "nose"
	case LeftShoulder:
		return "left_shoulder"
	case RightShoulder:
		return "right_shoulder"
	case LeftElbow:
		return "left_elbow"
	case RightElbow:
		return "right_elbow"
	case LeftWrist:
		return "left_wrist"
	case RightWrist:
		return "right_wrist"
	case LeftHip:
		return "left_hip"
	case RightHip:
		return "right_hip"
	default:
		return "unknown"
	}
}

// Required lists the landmarks a frame must carry for full classification.
// Frames missing any of these degrade to a no-classification result.
var Required = []Landmark{
	Nose,
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
}

// Point is a single keypoint position in normalized [0,1] image coordinates.
// The origin is the top-left corner, so Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is one timestamped snapshot of body keypoints
type Frame struct {
	Landmarks map[Landmark]Point `json:"landmarks"`
	Timestamp time.Time          `json:"timestamp"`
}

// Has reports whether the frame carries all of the given landmarks
func (f *Frame) Has(ids ...Landmark) bool {
	if f == nil || f.Landmarks == nil {
		return false
	}
	for _, id := range ids {
		if _, ok := f.Landmarks[id]; !ok {
			return false
		}
	}
	return true
}

// Complete reports whether the frame carries every required landmark
func (f *Frame) Complete() bool {
	return f.Has(Required...)
}

// At returns the position of a landmark and whether it is present
func (f *Frame) At(id Landmark) (Point, bool) {
	if f == nil || f.Landmarks == nil {
		return Point{}, false
	}
	p, ok := f.Landmarks[id]
	return p, ok
}

// Distance returns the Euclidean distance between two points
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the point halfway between a and b
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Angle returns the interior angle at vertex b formed by the segments b→a and
// b→c, in degrees within [0,180]. Used for the elbow angle with a=shoulder,
// b=elbow, c=wrist: a straight arm approaches 180, a tight bend approaches 0.
func Angle(a, b, c Point) float64 {
	abX, abY := a.X-b.X, a.Y-b.Y
	cbX, cbY := c.X-b.X, c.Y-b.Y

	dot := abX*cbX + abY*cbY
	magAB := math.Sqrt(abX*abX + abY*abY)
	magCB := math.Sqrt(cbX*cbX + cbY*cbY)

	if magAB == 0 || magCB == 0 {
		return 0
	}

	cos := dot / (magAB * magCB)
	// Clamp against floating point drift before acos
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}
