package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/drill"
	"punchcoach-server/pkg/errors"
	"punchcoach-server/pkg/pose"
	"punchcoach-server/pkg/session"
)

// frameMessage is the wire format the pose provider sends per frame.
// Landmarks are keyed by name; unknown names are ignored so newer providers
// can ship extra points without breaking older servers.
type frameMessage struct {
	TimestampMS int64                 `json:"timestamp_ms"`
	Landmarks   map[string]pose.Point `json:"landmarks"`
}

var landmarkNames = map[string]pose.Landmark{
	"nose":           pose.Nose,
	"left_shoulder":  pose.LeftShoulder,
	"right_shoulder": pose.RightShoulder,
	"left_elbow":     pose.LeftElbow,
	"right_elbow":    pose.RightElbow,
	"left_wrist":     pose.LeftWrist,
	"right_wrist":    pose.RightWrist,
	"left_hip":       pose.LeftHip,
	"right_hip":      pose.RightHip,
}

// toFrame converts the wire message into an engine frame
func (m *frameMessage) toFrame() *pose.Frame {
	frame := &pose.Frame{
		Landmarks: make(map[pose.Landmark]pose.Point, len(m.Landmarks)),
		Timestamp: time.UnixMilli(m.TimestampMS),
	}
	for name, point := range m.Landmarks {
		if id, ok := landmarkNames[name]; ok {
			frame.Landmarks[id] = point
		}
	}
	return frame
}

// SessionHandler serves the per-session WebSocket and REST endpoints
type SessionHandler struct {
	logger   *logrus.Logger
	registry *session.Registry
	hub      *EventHub
}

// NewSessionHandler creates the handler backed by the given registry and hub
func NewSessionHandler(logger *logrus.Logger, registry *session.Registry, hub *EventHub) *SessionHandler {
	return &SessionHandler{
		logger:   logger,
		registry: registry,
		hub:      hub,
	}
}

// HandleDrillSocket runs one drill session over a WebSocket connection: the
// session starts on connect, every incoming message is a keypoint frame, and
// the session's events stream back over the same connection. Closing the
// socket stops the drill.
func (h *SessionHandler) HandleDrillSocket(w http.ResponseWriter, r *http.Request) {
	mode := drill.ModeRandom
	if r.URL.Query().Get("mode") == string(drill.ModeSequence) {
		mode = drill.ModeSequence
	}

	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade drill WebSocket")
		return
	}

	handle, err := h.registry.Create(mode)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create drill session")
		conn.Close()
		return
	}
	sessionID := handle.Drill.ID()

	client := h.hub.NewClient(conn, sessionID)
	h.hub.Register(client)
	go client.WritePump()

	logger := h.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"mode":       mode,
		"remote":     r.RemoteAddr,
	})
	logger.Info("Drill connection established")

	defer func() {
		if _, err := h.registry.Stop(sessionID); err != nil && !errors.Is(err, errors.ErrSessionNotFound) {
			logger.WithError(err).Warn("Failed to stop session on disconnect")
		}
		h.hub.Unregister(client)
		logger.Info("Drill connection closed")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg frameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// A malformed frame never interrupts the session
			logger.WithError(err).Debug("Dropping malformed frame message")
			continue
		}

		handle.Drill.ProcessFrame(msg.toFrame())
	}
}

// HandleEventSocket subscribes an observer connection to the event stream.
// An optional session_id query parameter narrows it to one session.
func (h *SessionHandler) HandleEventSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade event WebSocket")
		return
	}

	client := h.hub.NewClient(conn, r.URL.Query().Get("session_id"))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleSessionState serves GET /api/sessions/{id}/state and
// GET /api/sessions/{id}/stats.
func (h *SessionHandler) HandleSessionState(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// Expect api/sessions/{id}/{view}
	if len(parts) != 4 {
		http.NotFound(w, r)
		return
	}
	id, view := parts[2], parts[3]

	handle, err := h.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	switch view {
	case "state":
		writeJSON(w, handle.Drill.Snapshot())
	case "stats":
		writeJSON(w, handle.Stats.Snapshot())
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
