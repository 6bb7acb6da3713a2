package drill

import (
	"time"

	"punchcoach-server/pkg/classifier"
	"punchcoach-server/pkg/scoring"
)

// EventType tags the engine events the presentation layer consumes
type EventType string

const (
	EventClassification   EventType = "classification"
	EventAnnounce         EventType = "announce"
	EventHit              EventType = "hit"
	EventMiss             EventType = "miss"
	EventLevelUp          EventType = "level_up"
	EventSequenceComplete EventType = "sequence_complete"
	EventSummary          EventType = "summary"
)

// StateSnapshot is the externally visible drill state at one instant
type StateSnapshot struct {
	State           State                   `json:"state"`
	Mode            Mode                    `json:"mode"`
	Level           int                     `json:"level"`
	HitsInLevel     int                     `json:"hits_in_level"`
	ComboCount      int                     `json:"combo_count"`
	ComboMultiplier float64                 `json:"combo_multiplier"`
	Unlocked        []classifier.PunchClass `json:"unlocked"`
	TotalHits       int                     `json:"total_hits"`
	TotalMisses     int                     `json:"total_misses"`
	PerfectHits     int                     `json:"perfect_hits"`
	TotalPoints     int                     `json:"total_points"`
	MaxCombo        int                     `json:"max_combo"`
	Expected        classifier.PunchClass   `json:"expected,omitempty"`
}

// SequenceProgress reports where a sequence-mode combo stands
type SequenceProgress struct {
	Name      string                  `json:"name"`
	Steps     []classifier.PunchClass `json:"steps"`
	StepIndex int                     `json:"step_index"`
}

// Summary is the final session report produced by Stop
type Summary struct {
	SessionID    string        `json:"session_id"`
	Mode         Mode          `json:"mode"`
	Duration     time.Duration `json:"duration"`
	TotalHits    int           `json:"total_hits"`
	TotalMisses  int           `json:"total_misses"`
	Accuracy     float64       `json:"accuracy"`
	MaxCombo     int           `json:"max_combo"`
	LevelReached int           `json:"level_reached"`
	PerfectHits  int           `json:"perfect_hits"`
	TotalPoints  int           `json:"total_points"`
}

// Event is one engine output record. Only the fields relevant to the event
// type are populated.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`

	Target         classifier.PunchClass        `json:"target,omitempty"`
	Classification *classifier.Result           `json:"classification,omitempty"`
	Stance         *classifier.StanceAssessment `json:"stance,omitempty"`
	Score          *scoring.ScoreResult         `json:"score,omitempty"`
	Points         int                          `json:"points,omitempty"`
	ReactionMS     int64                        `json:"reaction_ms,omitempty"`
	State          *StateSnapshot               `json:"state,omitempty"`
	Sequence       *SequenceProgress            `json:"sequence,omitempty"`
	Summary        *Summary                     `json:"summary,omitempty"`
}

// EventSink receives engine events. Sinks must not block; slow consumers
// should buffer internally.
type EventSink interface {
	Publish(event Event)
}

// SinkFunc adapts a function to the EventSink interface
type SinkFunc func(event Event)

// Publish implements EventSink
func (f SinkFunc) Publish(event Event) { f(event) }

// MultiSink fans one event stream out to several sinks in order
func MultiSink(sinks ...EventSink) EventSink {
	return SinkFunc(func(event Event) {
		for _, s := range sinks {
			if s != nil {
				s.Publish(event)
			}
		}
	})
}

// NopSink discards all events
func NopSink() EventSink {
	return SinkFunc(func(Event) {})
}
