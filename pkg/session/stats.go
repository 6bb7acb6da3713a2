package session

import (
	"sync"
	"time"

	"punchcoach-server/pkg/classifier"
	"punchcoach-server/pkg/drill"
)

// StatsSnapshot is the aggregate view of one session's activity
type StatsSnapshot struct {
	SessionID      string                        `json:"session_id"`
	Elapsed        time.Duration                 `json:"elapsed"`
	TotalPunches   int                           `json:"total_punches"`
	PunchBreakdown map[classifier.PunchClass]int `json:"punch_breakdown"`
	PunchesPerMin  float64                       `json:"punches_per_min"`
	AverageScore   float64                       `json:"average_score"`
	MaxScore       float64                       `json:"max_score"`
	StanceWarnings int                           `json:"stance_warnings"`
}

// Stats accumulates per-session aggregates from the event stream. It is a
// drill.EventSink and sits alongside the externally configured sinks.
type Stats struct {
	mutex          sync.Mutex
	sessionID      string
	startedAt      time.Time
	lastEventAt    time.Time
	totalPunches   int
	breakdown      map[classifier.PunchClass]int
	scoreSum       float64
	scoreCount     int
	maxScore       float64
	stanceWarnings int
}

// NewStats creates an empty aggregate. The session ID is learned from the
// first event since the session mints its own ID at construction.
func NewStats() *Stats {
	return &Stats{
		breakdown: make(map[classifier.PunchClass]int),
	}
}

// Publish implements drill.EventSink
func (st *Stats) Publish(event drill.Event) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.sessionID == "" {
		st.sessionID = event.SessionID
	}
	if st.startedAt.IsZero() {
		st.startedAt = event.Timestamp
	}
	st.lastEventAt = event.Timestamp

	switch event.Type {
	case drill.EventClassification:
		if event.Classification != nil && event.Classification.Fired() {
			st.totalPunches++
			st.breakdown[event.Classification.Class]++
		}
		if event.Stance != nil && !event.Stance.IsGood {
			st.stanceWarnings++
		}

	case drill.EventHit:
		if event.Score != nil {
			st.scoreSum += event.Score.TotalScore
			st.scoreCount++
			if event.Score.TotalScore > st.maxScore {
				st.maxScore = event.Score.TotalScore
			}
		}
	}
}

// Snapshot returns the current aggregates
func (st *Stats) Snapshot() StatsSnapshot {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	elapsed := st.lastEventAt.Sub(st.startedAt)

	ppm := 0.0
	if minutes := elapsed.Minutes(); minutes > 0 {
		ppm = float64(st.totalPunches) / minutes
	}

	avg := 0.0
	if st.scoreCount > 0 {
		avg = st.scoreSum / float64(st.scoreCount)
	}

	breakdown := make(map[classifier.PunchClass]int, len(st.breakdown))
	for class, count := range st.breakdown {
		breakdown[class] = count
	}

	return StatsSnapshot{
		SessionID:      st.sessionID,
		Elapsed:        elapsed,
		TotalPunches:   st.totalPunches,
		PunchBreakdown: breakdown,
		PunchesPerMin:  ppm,
		AverageScore:   avg,
		MaxScore:       st.maxScore,
		StanceWarnings: st.stanceWarnings,
	}
}
