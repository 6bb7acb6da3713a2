// Package session owns the lifecycle of drill sessions: creation, lookup,
// stop, and per-session aggregate statistics. Each session is an isolated
// object with its own tracker, classifier cooldowns, and timers, so
// concurrent sessions never cross-talk.
package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/classifier"
	"punchcoach-server/pkg/drill"
	"punchcoach-server/pkg/errors"
	"punchcoach-server/pkg/metrics"
	"punchcoach-server/pkg/motion"
	"punchcoach-server/pkg/scoring"
)

// Handle pairs a running drill with its aggregate statistics
type Handle struct {
	Drill *drill.Session
	Stats *Stats
}

// RegistryParams bundles the shared collaborators sessions are built from
type RegistryParams struct {
	Logger     *logrus.Logger
	Drill      drill.Config
	Classifier classifier.Config
	Scoring    scoring.Config
	Stance     classifier.StanceThresholds
	Clock      drill.Clock

	// Sink receives every session's events in addition to the per-session
	// statistics collector
	Sink drill.EventSink

	// Seed makes session randomness reproducible when non-zero
	Seed int64
}

// Registry tracks live drill sessions by ID
type Registry struct {
	mutex    sync.RWMutex
	logger   *logrus.Entry
	params   RegistryParams
	sessions map[string]*Handle
	seedSeq  int64
}

// NewRegistry creates an empty session registry
func NewRegistry(params RegistryParams) *Registry {
	if params.Logger == nil {
		params.Logger = logrus.New()
	}
	if params.Clock == nil {
		params.Clock = drill.RealClock()
	}
	if params.Sink == nil {
		params.Sink = drill.NopSink()
	}

	return &Registry{
		logger:   params.Logger.WithField("component", "session_registry"),
		params:   params,
		sessions: make(map[string]*Handle),
	}
}

// Create builds a new session with its own tracker, classifier, and scorer,
// registers it, and starts the drill.
func (r *Registry) Create(mode drill.Mode) (*Handle, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rng := r.newRandLocked()
	stats := NewStats()

	sess := drill.NewSession(drill.SessionParams{
		Logger:     r.params.Logger,
		Config:     r.params.Drill,
		Mode:       mode,
		Clock:      r.params.Clock,
		Rand:       rng,
		Sink:       drill.MultiSink(stats, r.params.Sink),
		Classifier: classifier.New(r.params.Classifier, r.params.Logger),
		Tracker:    motion.NewTracker(motion.DefaultWindow),
		Scorer:     scoring.NewEngine(r.params.Scoring, rng),
		Stance:     r.params.Stance,
	})

	if err := sess.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start drill session")
	}

	handle := &Handle{Drill: sess, Stats: stats}
	r.sessions[sess.ID()] = handle
	metrics.ActiveSessions.Inc()

	r.logger.WithFields(logrus.Fields{
		"session_id": sess.ID(),
		"mode":       mode,
		"active":     len(r.sessions),
	}).Info("Drill session created")

	return handle, nil
}

// Get looks up a live session
func (r *Registry) Get(id string) (*Handle, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	handle, ok := r.sessions[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrSessionNotFound, "unknown session").WithField("session_id", id)
	}
	return handle, nil
}

// Stop stops a session's drill, removes it from the registry, and returns
// the final summary.
func (r *Registry) Stop(id string) (*drill.Summary, error) {
	r.mutex.Lock()
	handle, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mutex.Unlock()

	if !ok {
		return nil, errors.Wrap(errors.ErrSessionNotFound, "unknown session").WithField("session_id", id)
	}
	metrics.ActiveSessions.Dec()

	summary, err := handle.Drill.Stop()
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"session_id": id,
		"accuracy":   summary.Accuracy,
		"points":     summary.TotalPoints,
	}).Info("Drill session stopped")

	return summary, nil
}

// StopAll stops every live session, used during shutdown
func (r *Registry) StopAll() {
	r.mutex.Lock()
	handles := make([]*Handle, 0, len(r.sessions))
	for _, h := range r.sessions {
		handles = append(handles, h)
	}
	r.sessions = make(map[string]*Handle)
	r.mutex.Unlock()

	for _, h := range handles {
		metrics.ActiveSessions.Dec()
		if _, err := h.Drill.Stop(); err != nil {
			r.logger.WithError(err).Warn("Failed to stop session during shutdown")
		}
	}
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.sessions)
}

// newRandLocked derives a per-session random source. With a configured seed
// the sequence is reproducible across runs; otherwise it is time-seeded.
func (r *Registry) newRandLocked() *rand.Rand {
	r.seedSeq++
	if r.params.Seed != 0 {
		return rand.New(rand.NewSource(r.params.Seed + r.seedSeq))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano() + r.seedSeq))
}
