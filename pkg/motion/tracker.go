// Package motion estimates per-landmark velocity from successive keypoint
// observations, smoothing frame-to-frame jitter with a short moving average.
package motion

import (
	"sync"
	"time"

	"punchcoach-server/pkg/pose"
)

// DefaultWindow is the number of speed samples kept per landmark for
// smoothing. A small window trades a fixed few-frame latency for rejection of
// single-frame position jitter.
const DefaultWindow = 5

// sample is the last observed position for one landmark
type sample struct {
	point pose.Point
	at    time.Time
}

// Tracker maintains velocity state for a set of landmarks. A Tracker belongs
// to exactly one drill session; concurrent frame producers are serialized by
// the internal mutex.
type Tracker struct {
	mutex   sync.Mutex
	window  int
	last    map[pose.Landmark]sample
	history map[pose.Landmark][]float64
}

// NewTracker creates a tracker with the given smoothing window.
// A window below 1 falls back to DefaultWindow.
func NewTracker(window int) *Tracker {
	if window < 1 {
		window = DefaultWindow
	}
	return &Tracker{
		window:  window,
		last:    make(map[pose.Landmark]sample),
		history: make(map[pose.Landmark][]float64),
	}
}

// UpdateSpeed records a new observation for the landmark and returns its
// smoothed speed in normalized frame units per second. The first observation
// of a landmark, and observations with zero elapsed time, contribute a zero
// sample rather than an error.
func (t *Tracker) UpdateSpeed(id pose.Landmark, p pose.Point, at time.Time) float64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var instant float64
	if prev, ok := t.last[id]; ok {
		elapsed := at.Sub(prev.at).Seconds()
		if elapsed > 0 {
			instant = pose.Distance(prev.point, p) / elapsed
		}
	}

	t.last[id] = sample{point: p, at: at}

	hist := append(t.history[id], instant)
	if len(hist) > t.window {
		hist = hist[len(hist)-t.window:]
	}
	t.history[id] = hist

	var sum float64
	for _, s := range hist {
		sum += s
	}
	return sum / float64(len(hist))
}

// Speed returns the current smoothed speed for the landmark without recording
// a new observation. Returns 0 for landmarks never observed.
func (t *Tracker) Speed(id pose.Landmark) float64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	hist := t.history[id]
	if len(hist) == 0 {
		return 0
	}
	var sum float64
	for _, s := range hist {
		sum += s
	}
	return sum / float64(len(hist))
}

// Reset clears all position and speed history. Called at drill start and stop
// so one session's motion never bleeds into the next.
func (t *Tracker) Reset() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.last = make(map[pose.Landmark]sample)
	t.history = make(map[pose.Landmark][]float64)
}
