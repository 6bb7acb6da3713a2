package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punchcoach-server/pkg/classifier"
	"punchcoach-server/pkg/config"
	"punchcoach-server/pkg/drill"
	"punchcoach-server/pkg/pose"
	"punchcoach-server/pkg/scoring"
	"punchcoach-server/pkg/session"
)

func TestFrameMessageToFrame(t *testing.T) {
	raw := `{
		"timestamp_ms": 1700000000123,
		"landmarks": {
			"nose":           {"x": 0.50, "y": 0.20},
			"left_shoulder":  {"x": 0.42, "y": 0.35},
			"right_shoulder": {"x": 0.58, "y": 0.35},
			"left_wrist":     {"x": 0.30, "y": 0.35},
			"left_ankle":     {"x": 0.45, "y": 0.95}
		}
	}`

	var msg frameMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	frame := msg.toFrame()
	assert.Equal(t, time.UnixMilli(1700000000123), frame.Timestamp)

	point, ok := frame.At(pose.Nose)
	require.True(t, ok)
	assert.Equal(t, pose.Point{X: 0.50, Y: 0.20}, point)

	assert.True(t, frame.Has(pose.LeftShoulder, pose.RightShoulder, pose.LeftWrist))

	// Unknown landmark names are silently dropped
	assert.Len(t, frame.Landmarks, 4)
	assert.False(t, frame.Complete())
}

func TestFrameMessageEmpty(t *testing.T) {
	var msg frameMessage
	require.NoError(t, json.Unmarshal([]byte(`{}`), &msg))

	frame := msg.toFrame()
	assert.Empty(t, frame.Landmarks)
	assert.False(t, frame.Complete())
}

func newTestHandler(t *testing.T) *SessionHandler {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	registry := session.NewRegistry(session.RegistryParams{
		Logger:     logger,
		Drill:      drill.DefaultConfig(),
		Classifier: classifier.StrictConfig(),
		Scoring:    scoring.DefaultConfig(),
		Stance:     classifier.DefaultStanceThresholds(),
		Clock:      drill.NewFakeClock(time.Now()),
	})
	return NewSessionHandler(logger, registry, NewEventHub(logger))
}

func TestHandleSessionState(t *testing.T) {
	handler := newTestHandler(t)

	handle, err := handler.registry.Create(drill.ModeRandom)
	require.NoError(t, err)
	id := handle.Drill.ID()

	t.Run("state view", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/sessions/"+id+"/state", nil)
		handler.HandleSessionState(rec, req)

		require.Equal(t, 200, rec.Code)
		var snap drill.StateSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Equal(t, drill.ModeRandom, snap.Mode)
		assert.Equal(t, 1, snap.Level)
	})

	t.Run("stats view", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/sessions/"+id+"/stats", nil)
		handler.HandleSessionState(rec, req)

		require.Equal(t, 200, rec.Code)
		var stats session.StatsSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 0, stats.TotalPunches)
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/sessions/nope/state", nil)
		handler.HandleSessionState(rec, req)
		assert.Equal(t, 404, rec.Code)
	})

	t.Run("unknown view", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/sessions/"+id+"/nonsense", nil)
		handler.HandleSessionState(rec, req)
		assert.Equal(t, 404, rec.Code)
	})

	t.Run("malformed path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/sessions/", nil)
		handler.HandleSessionState(rec, req)
		assert.Equal(t, 404, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	registry := session.NewRegistry(session.RegistryParams{Logger: logger})
	hub := NewEventHub(logger)
	server := NewServer(logger, config.HTTPConfig{
		Enabled:      true,
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}, registry, hub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	server.handleHealth(rec, req)

	require.Equal(t, 200, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}
