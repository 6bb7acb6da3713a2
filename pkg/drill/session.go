package drill

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/classifier"
	"punchcoach-server/pkg/errors"
	"punchcoach-server/pkg/motion"
	"punchcoach-server/pkg/pose"
	"punchcoach-server/pkg/scoring"
)

// State is the scheduler state machine position
type State string

const (
	StateIdle       State = "idle"
	StateAnnouncing State = "announcing"
	StateAwaiting   State = "awaiting_input"
)

// basePoints is the flat award for any hit, before bonuses and multiplier
const basePoints = 100

// SessionParams bundles the collaborators a session needs. Zero-value fields
// fall back to production defaults; tests inject a fake clock, a seeded
// random source, and a capturing sink.
type SessionParams struct {
	Logger     *logrus.Logger
	Config     Config
	Mode       Mode
	Clock      Clock
	Rand       *rand.Rand
	Sink       EventSink
	Classifier *classifier.Classifier
	Tracker    *motion.Tracker
	Scorer     *scoring.Engine
	Stance     classifier.StanceThresholds
	Sequences  []Sequence
}

// Session is one drill run. It owns all of its state (tracker, classifier
// cooldowns, combo counters, timers) so concurrent sessions never share
// anything. Frames may arrive from network goroutines; the internal mutex is
// the single serialization boundary required by the state machine.
type Session struct {
	mutex  sync.Mutex
	id     string
	logger *logrus.Entry

	config     Config
	mode       Mode
	clock      Clock
	rng        *rand.Rand
	sink       EventSink
	classifier *classifier.Classifier
	tracker    *motion.Tracker
	scorer     *scoring.Engine
	stance     classifier.StanceThresholds
	pool       []Sequence

	state           State
	level           int
	hitsInLevel     int
	comboCount      int
	comboMultiplier float64
	unlocked        []classifier.PunchClass
	totalHits       int
	totalMisses     int
	perfectHits     int
	perfectStreak   int
	totalPoints     int
	maxCombo        int

	// Active challenge. challengeID and resolved form the guard that makes
	// the first observer of a hit/timeout race authoritative.
	expected    classifier.PunchClass
	challengeID uint64
	resolved    bool
	announcedAt time.Time
	budget      time.Duration

	// Sequence-mode progress
	sequence  *Sequence
	stepIndex int

	// epoch invalidates timer callbacks scheduled before a stop
	epoch         uint64
	timeout       Timer
	announceTimer Timer

	startedAt time.Time
	lastHitAt time.Time
}

// NewSession creates an idle drill session with a fresh ID
func NewSession(params SessionParams) *Session {
	if params.Logger == nil {
		params.Logger = logrus.New()
	}
	if params.Clock == nil {
		params.Clock = RealClock()
	}
	if params.Rand == nil {
		params.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if params.Sink == nil {
		params.Sink = NopSink()
	}
	if params.Tracker == nil {
		params.Tracker = motion.NewTracker(motion.DefaultWindow)
	}
	if params.Classifier == nil {
		params.Classifier = classifier.New(classifier.StrictConfig(), params.Logger)
	}
	if params.Scorer == nil {
		params.Scorer = scoring.NewEngine(scoring.DefaultConfig(), params.Rand)
	}
	if params.Stance == (classifier.StanceThresholds{}) {
		params.Stance = classifier.DefaultStanceThresholds()
	}
	if params.Mode == "" {
		params.Mode = ModeRandom
	}
	if len(params.Sequences) == 0 {
		params.Sequences = DefaultSequences
	}

	id := uuid.NewString()
	return &Session{
		id: id,
		logger: params.Logger.WithFields(logrus.Fields{
			"component":  "drill",
			"session_id": id,
			"mode":       params.Mode,
		}),
		config:          params.Config,
		mode:            params.Mode,
		clock:           params.Clock,
		rng:             params.Rand,
		sink:            params.Sink,
		classifier:      params.Classifier,
		tracker:         params.Tracker,
		scorer:          params.Scorer,
		stance:          params.Stance,
		pool:            params.Sequences,
		state:           StateIdle,
		level:           1,
		comboMultiplier: 1.0,
		unlocked:        baseUnlocked(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Mode returns the session's operating mode
func (s *Session) Mode() Mode { return s.mode }

// Start resets all session state and schedules the first announcement
func (s *Session) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateIdle {
		return errors.Wrap(errors.ErrDrillAlreadyRunning, "cannot start session").WithField("session_id", s.id)
	}

	s.tracker.Reset()
	s.classifier.Reset()

	s.level = 1
	s.hitsInLevel = 0
	s.comboCount = 0
	s.comboMultiplier = 1.0
	s.unlocked = baseUnlocked()
	s.totalHits = 0
	s.totalMisses = 0
	s.perfectHits = 0
	s.perfectStreak = 0
	s.totalPoints = 0
	s.maxCombo = 0
	s.expected = classifier.ClassNone
	s.resolved = true
	s.sequence = nil
	s.stepIndex = 0
	s.epoch++

	now := s.clock.Now()
	s.startedAt = now
	s.lastHitAt = now

	s.logger.Info("Drill session started")
	s.scheduleAnnounceLocked()
	return nil
}

// Stop cancels every outstanding timer, discards the active challenge, and
// returns the session summary. Safe from any state; stopping an idle session
// returns ErrDrillNotRunning.
func (s *Session) Stop() (*Summary, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateIdle {
		return nil, errors.Wrap(errors.ErrDrillNotRunning, "cannot stop session").WithField("session_id", s.id)
	}

	s.cancelTimersLocked()
	s.epoch++
	s.resolved = true
	s.expected = classifier.ClassNone
	s.state = StateIdle

	summary := s.summaryLocked()
	s.emitLocked(Event{Type: EventSummary, Summary: summary})

	s.logger.WithFields(logrus.Fields{
		"hits":     summary.TotalHits,
		"misses":   summary.TotalMisses,
		"accuracy": summary.Accuracy,
		"level":    summary.LevelReached,
	}).Info("Drill session stopped")

	return summary, nil
}

// Snapshot returns the externally visible drill state
func (s *Session) Snapshot() StateSnapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshotLocked()
}

// ProcessFrame runs one classification pass over an incoming frame and feeds
// any resulting punch into the state machine. Frames for idle sessions are
// dropped; malformed frames classify to none rather than failing.
func (s *Session) ProcessFrame(frame *pose.Frame) classifier.Result {
	s.mutex.Lock()
	if s.state == StateIdle {
		s.mutex.Unlock()
		return classifier.Result{Class: classifier.ClassNone}
	}
	s.mutex.Unlock()

	kinematics := classifier.Extract(frame, s.tracker)
	result := s.classifier.Classify(frame, &kinematics)
	stance := classifier.AnalyzeStance(frame, s.stance)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateIdle {
		// Stopped while the frame was being classified
		return classifier.Result{Class: classifier.ClassNone}
	}

	s.emitLocked(Event{
		Type:           EventClassification,
		Classification: &result,
		Stance:         &stance,
	})

	if result.Fired() {
		s.handlePunchLocked(result)
	}

	return result
}

// handlePunchLocked routes a classified punch into the active challenge. A
// punch that does not match the expected target is ignored in both modes;
// only a timeout produces a miss.
func (s *Session) handlePunchLocked(result classifier.Result) {
	if s.state != StateAwaiting || s.resolved {
		return
	}
	if result.Class != s.expected {
		return
	}

	// This hit won the race against the reaction timer
	s.resolved = true
	if s.timeout != nil {
		s.timeout.Stop()
		s.timeout = nil
	}

	now := s.clock.Now()

	s.comboCount++
	s.comboMultiplier = scoring.Multiplier(s.comboCount)
	if s.comboCount > s.maxCombo {
		s.maxCombo = s.comboCount
	}

	score := s.scorer.Score(result.Class, result.Speed, result.Angle)
	if score.IsPerfect {
		s.perfectStreak++
		s.perfectHits++
	} else {
		s.perfectStreak = 0
	}

	reaction := now.Sub(s.announcedAt)
	budgetUsed := 0.0
	if s.mode == ModeRandom && s.budget > 0 {
		budgetUsed = float64(reaction) / float64(s.budget)
	}

	bonus := scoring.BonusPoints(scoring.BonusContext{
		Result:        score,
		ComboCount:    s.comboCount,
		BudgetUsed:    budgetUsed,
		PerfectStreak: s.perfectStreak,
	})
	bonus += scoring.CategoryBonus(result.Class)

	points := int(float64(basePoints+bonus) * s.comboMultiplier)
	s.totalPoints += points
	s.totalHits++
	s.hitsInLevel++
	s.lastHitAt = now

	if s.hitsInLevel >= s.config.HitsPerLevel {
		s.level++
		s.hitsInLevel = 0
		newly := s.applyUnlocksLocked()
		snapshot := s.snapshotLocked()
		s.emitLocked(Event{Type: EventLevelUp, State: &snapshot})
		s.logger.WithFields(logrus.Fields{
			"level":    s.level,
			"unlocked": newly,
		}).Info("Level up")
	}

	snapshot := s.snapshotLocked()
	event := Event{
		Type:       EventHit,
		Target:     result.Class,
		Score:      &score,
		Points:     points,
		ReactionMS: reaction.Milliseconds(),
		State:      &snapshot,
	}
	if s.mode == ModeSequence && s.sequence != nil {
		progress := s.sequenceProgressLocked()
		progress.StepIndex++ // report the step just completed
		event.Sequence = &progress
	}
	s.emitLocked(event)

	if s.mode == ModeSequence {
		s.advanceSequenceLocked()
	}

	s.scheduleAnnounceLocked()
}

// advanceSequenceLocked moves sequence-mode progress forward after a hit and
// pays the completion bonus when the combo finishes.
func (s *Session) advanceSequenceLocked() {
	if s.sequence == nil {
		return
	}
	s.stepIndex++
	if s.stepIndex < len(s.sequence.Steps) {
		return
	}

	bonus := int(sequenceCompletionBonus * s.comboMultiplier)
	s.totalPoints += bonus

	progress := s.sequenceProgressLocked()
	progress.StepIndex = len(s.sequence.Steps)
	snapshot := s.snapshotLocked()
	s.emitLocked(Event{
		Type:     EventSequenceComplete,
		Points:   bonus,
		Sequence: &progress,
		State:    &snapshot,
	})
	s.logger.WithField("sequence", s.sequence.Name).Info("Sequence completed")

	s.sequence = nil
	s.stepIndex = 0
}

// scheduleAnnounceLocked enters Announcing and arms the announce delay
func (s *Session) scheduleAnnounceLocked() {
	s.state = StateAnnouncing
	s.expected = classifier.ClassNone

	epoch := s.epoch
	s.announceTimer = s.clock.AfterFunc(s.config.AnnounceDelay, func() {
		s.announce(epoch)
	})
}

// announce picks the next target and opens the reaction window. The epoch
// guard drops announcements scheduled before a stop.
func (s *Session) announce(epoch uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if epoch != s.epoch || s.state != StateAnnouncing {
		return
	}
	s.announceTimer = nil

	now := s.clock.Now()

	// Stale-combo decay: a long gap since the last hit breaks the combo
	// even without an explicit miss.
	if s.comboCount > 0 && now.Sub(s.lastHitAt) > s.config.ComboIdleReset {
		s.comboCount = 0
		s.comboMultiplier = 1.0
		s.logger.Debug("Combo reset after idle gap")
	}

	s.challengeID++
	s.resolved = false
	s.announcedAt = now
	s.state = StateAwaiting

	event := Event{Type: EventAnnounce}

	switch s.mode {
	case ModeSequence:
		if s.sequence == nil {
			drawn := s.pool[s.rng.Intn(len(s.pool))]
			s.sequence = &drawn
			s.stepIndex = 0
			s.logger.WithField("sequence", drawn.Name).Info("New sequence drawn")
		}
		s.expected = s.sequence.Steps[s.stepIndex]
		s.budget = 0
		progress := s.sequenceProgressLocked()
		event.Sequence = &progress

	default:
		s.expected = s.unlocked[s.rng.Intn(len(s.unlocked))]
		s.budget = s.config.ReactionBudget(s.level)

		id := s.challengeID
		s.timeout = s.clock.AfterFunc(s.budget, func() {
			s.onTimeout(epoch, id)
		})
	}

	event.Target = s.expected
	snapshot := s.snapshotLocked()
	event.State = &snapshot
	s.emitLocked(event)
}

// onTimeout fires a miss when the reaction budget elapses. The challenge and
// epoch guards make a timeout racing a just-landed hit a no-op: whichever
// resolves the challenge first is authoritative.
func (s *Session) onTimeout(epoch, challengeID uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if epoch != s.epoch || challengeID != s.challengeID {
		return
	}
	if s.state != StateAwaiting || s.resolved {
		return
	}

	s.resolved = true
	s.timeout = nil
	s.totalMisses++
	s.perfectStreak = 0

	if s.comboCount > 0 {
		s.comboCount = 0
		s.comboMultiplier = 1.0
	}

	missed := s.expected
	s.expected = classifier.ClassNone

	snapshot := s.snapshotLocked()
	s.emitLocked(Event{
		Type:   EventMiss,
		Target: missed,
		State:  &snapshot,
	})
	s.logger.WithField("target", missed).Debug("Reaction window expired")

	s.scheduleAnnounceLocked()
}

// applyUnlocksLocked re-evaluates the unlock table for the current level.
// Adding an already-unlocked class is a no-op, so the call is idempotent and
// the unlocked set only ever grows.
func (s *Session) applyUnlocksLocked() []classifier.PunchClass {
	var newly []classifier.PunchClass

	unlock := func(classes ...classifier.PunchClass) {
		for _, class := range classes {
			if !containsClass(s.unlocked, class) {
				s.unlocked = append(s.unlocked, class)
				newly = append(newly, class)
			}
		}
	}

	if s.level >= s.config.HookUnlockLevel {
		unlock(classifier.ClassLeftHook, classifier.ClassRightHook)
	}
	if s.level >= s.config.UppercutUnlockLevel {
		unlock(classifier.ClassLeftUppercut, classifier.ClassRightUppercut)
	}
	if s.level >= s.config.BodyUnlockLevel {
		unlock(classifier.ClassLeftBody, classifier.ClassRightBody)
	}

	return newly
}

func (s *Session) cancelTimersLocked() {
	if s.timeout != nil {
		s.timeout.Stop()
		s.timeout = nil
	}
	if s.announceTimer != nil {
		s.announceTimer.Stop()
		s.announceTimer = nil
	}
}

func (s *Session) snapshotLocked() StateSnapshot {
	unlocked := make([]classifier.PunchClass, len(s.unlocked))
	copy(unlocked, s.unlocked)

	return StateSnapshot{
		State:           s.state,
		Mode:            s.mode,
		Level:           s.level,
		HitsInLevel:     s.hitsInLevel,
		ComboCount:      s.comboCount,
		ComboMultiplier: s.comboMultiplier,
		Unlocked:        unlocked,
		TotalHits:       s.totalHits,
		TotalMisses:     s.totalMisses,
		PerfectHits:     s.perfectHits,
		TotalPoints:     s.totalPoints,
		MaxCombo:        s.maxCombo,
		Expected:        s.expected,
	}
}

func (s *Session) sequenceProgressLocked() SequenceProgress {
	steps := make([]classifier.PunchClass, len(s.sequence.Steps))
	copy(steps, s.sequence.Steps)
	return SequenceProgress{
		Name:      s.sequence.Name,
		Steps:     steps,
		StepIndex: s.stepIndex,
	}
}

func (s *Session) summaryLocked() *Summary {
	total := s.totalHits + s.totalMisses
	accuracy := 0.0
	if total > 0 {
		accuracy = float64(s.totalHits) / float64(total)
	}

	return &Summary{
		SessionID:    s.id,
		Mode:         s.mode,
		Duration:     s.clock.Now().Sub(s.startedAt),
		TotalHits:    s.totalHits,
		TotalMisses:  s.totalMisses,
		Accuracy:     accuracy,
		MaxCombo:     s.maxCombo,
		LevelReached: s.level,
		PerfectHits:  s.perfectHits,
		TotalPoints:  s.totalPoints,
	}
}

func (s *Session) emitLocked(event Event) {
	event.SessionID = s.id
	event.Timestamp = s.clock.Now()
	s.sink.Publish(event)
}

// baseUnlocked returns the classes available from level 1
func baseUnlocked() []classifier.PunchClass {
	return []classifier.PunchClass{classifier.ClassJab, classifier.ClassCross}
}

func containsClass(list []classifier.PunchClass, class classifier.PunchClass) bool {
	for _, c := range list {
		if c == class {
			return true
		}
	}
	return false
}
