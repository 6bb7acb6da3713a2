// Package metrics exposes the engine's Prometheus instrumentation
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/drill"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Frame pipeline metrics
	FramesProcessed   prometheus.Counter
	PunchesClassified *prometheus.CounterVec
	StanceWarnings    prometheus.Counter

	// Drill metrics
	DrillHits         *prometheus.CounterVec
	DrillMisses       prometheus.Counter
	DrillLevelUps     prometheus.Counter
	ActiveSessions    prometheus.Gauge
	PunchScore        prometheus.Histogram
	ReactionTime      prometheus.Histogram
	SessionAccuracy   prometheus.Histogram
	SequencesComplete prometheus.Counter

	// AMQP metrics
	AMQPPublishedMessages prometheus.Counter
	AMQPPublishErrors     prometheus.Counter
)

// Init ensures all metrics are registered and logs readiness. Registration
// itself is idempotent, so packages touching counters before Init is called
// never observe nil collectors.
func Init(logger *logrus.Logger) {
	register()
	logger.Info("Prometheus metrics initialized")
}

func register() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		FramesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "punchcoach_frames_processed_total",
			Help: "Total number of keypoint frames processed",
		})

		PunchesClassified = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "punchcoach_punches_classified_total",
				Help: "Total number of punches classified, by class",
			},
			[]string{"class"},
		)

		StanceWarnings = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "punchcoach_stance_warnings_total",
			Help: "Total number of frames with stance advisories",
		})

		DrillHits = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "punchcoach_drill_hits_total",
				Help: "Total number of drill hits, by punch class",
			},
			[]string{"class"},
		)

		DrillMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "punchcoach_drill_misses_total",
			Help: "Total number of drill reaction timeouts",
		})

		DrillLevelUps = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "punchcoach_drill_level_ups_total",
			Help: "Total number of drill level advances",
		})

		ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "punchcoach_active_sessions",
			Help: "Number of currently active drill sessions",
		})

		PunchScore = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "punchcoach_punch_score",
			Help:    "Distribution of punch quality scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		})

		ReactionTime = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "punchcoach_punch_reaction_seconds",
			Help:    "Distribution of reaction times on drill hits",
			Buckets: prometheus.LinearBuckets(0.25, 0.25, 12),
		})

		SessionAccuracy = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "punchcoach_session_accuracy",
			Help:    "Distribution of final session accuracy",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		})

		SequencesComplete = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "punchcoach_sequences_completed_total",
			Help: "Total number of completed sequence-mode combos",
		})

		AMQPPublishedMessages = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "punchcoach_amqp_published_messages_total",
			Help: "Total number of events published to AMQP",
		})

		AMQPPublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "punchcoach_amqp_publish_errors_total",
			Help: "Total number of failed AMQP publishes",
		})

		registry.MustRegister(
			FramesProcessed,
			PunchesClassified,
			StanceWarnings,
			DrillHits,
			DrillMisses,
			DrillLevelUps,
			ActiveSessions,
			PunchScore,
			ReactionTime,
			SessionAccuracy,
			SequencesComplete,
			AMQPPublishedMessages,
			AMQPPublishErrors,
		)
	})
}

func init() {
	register()
}

// Handler returns the HTTP handler serving the metrics endpoint
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Sink returns an event sink that records drill events as metrics
func Sink() drill.EventSink {
	return drill.SinkFunc(func(event drill.Event) {
		switch event.Type {
		case drill.EventClassification:
			FramesProcessed.Inc()
			if event.Classification != nil && event.Classification.Fired() {
				PunchesClassified.WithLabelValues(string(event.Classification.Class)).Inc()
			}
			if event.Stance != nil && !event.Stance.IsGood {
				StanceWarnings.Inc()
			}

		case drill.EventHit:
			DrillHits.WithLabelValues(string(event.Target)).Inc()
			if event.Score != nil {
				PunchScore.Observe(event.Score.TotalScore)
			}
			if event.ReactionMS > 0 {
				ReactionTime.Observe(float64(event.ReactionMS) / 1000)
			}

		case drill.EventMiss:
			DrillMisses.Inc()

		case drill.EventLevelUp:
			DrillLevelUps.Inc()

		case drill.EventSequenceComplete:
			SequencesComplete.Inc()

		case drill.EventSummary:
			if event.Summary != nil {
				SessionAccuracy.Observe(event.Summary.Accuracy)
			}
		}
	})
}
