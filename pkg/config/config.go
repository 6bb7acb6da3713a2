// Package config loads and validates the complete application configuration
// from environment variables, with optional .env file support. Configuration
// load is the one place failures are surfaced synchronously and fatally: a
// broken threshold table would silently corrupt every later classification.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/classifier"
	"punchcoach-server/pkg/drill"
	"punchcoach-server/pkg/scoring"
)

// Config represents the complete application configuration
type Config struct {
	HTTP       HTTPConfig       `json:"http"`
	Logging    LoggingConfig    `json:"logging"`
	Messaging  MessagingConfig  `json:"messaging"`
	Classifier ClassifierConfig `json:"classifier"`
	Scoring    scoring.Config   `json:"scoring"`
	Scheduler  drill.Config     `json:"scheduler"`
	Session    SessionConfig    `json:"session"`
}

// HTTPConfig holds the HTTP/WebSocket server configuration
type HTTPConfig struct {
	Enabled       bool          `json:"enabled" env:"HTTP_ENABLED" default:"true"`
	Port          int           `json:"port" env:"HTTP_PORT" default:"8080"`
	ReadTimeout   time.Duration `json:"read_timeout" env:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout  time.Duration `json:"write_timeout" env:"HTTP_WRITE_TIMEOUT" default:"30s"`
	EnableMetrics bool          `json:"enable_metrics" env:"HTTP_ENABLE_METRICS" default:"true"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"LOG_FORMAT" default:"json"`
}

// MessagingConfig holds the AMQP event publishing configuration
type MessagingConfig struct {
	Enabled   bool   `json:"enabled" env:"AMQP_ENABLED" default:"false"`
	URL       string `json:"url" env:"AMQP_URL"`
	QueueName string `json:"queue_name" env:"AMQP_QUEUE_NAME" default:"punchcoach-events"`
}

// ClassifierConfig holds the resolved rule table plus stance thresholds
type ClassifierConfig struct {
	// Preset names the base rule table: "strict" or "arcade"
	Preset string `json:"preset" env:"CLASSIFIER_PRESET" default:"strict"`

	Rules  classifier.Config           `json:"rules"`
	Stance classifier.StanceThresholds `json:"stance"`
}

// SessionConfig holds session registry configuration
type SessionConfig struct {
	// Seed makes target/sequence/feedback randomness reproducible when
	// non-zero. Leave zero in production.
	Seed int64 `json:"seed" env:"SESSION_SEED" default:"0"`
}

// Load reads configuration from the environment (after a best-effort .env
// load), applies per-class overrides on top of the selected preset, and
// validates everything. A validation failure is fatal by design.
func Load(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded .env file")
	} else {
		logger.Debug("No .env file found, using environment variables only")
	}

	config := &Config{
		HTTP: HTTPConfig{
			Enabled:       getEnvBool("HTTP_ENABLED", true),
			Port:          getEnvInt("HTTP_PORT", 8080),
			ReadTimeout:   getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			EnableMetrics: getEnvBool("HTTP_ENABLE_METRICS", true),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Messaging: MessagingConfig{
			Enabled:   getEnvBool("AMQP_ENABLED", false),
			URL:       getEnv("AMQP_URL", ""),
			QueueName: getEnv("AMQP_QUEUE_NAME", "punchcoach-events"),
		},
		Session: SessionConfig{
			Seed: int64(getEnvInt("SESSION_SEED", 0)),
		},
		Scoring:   scoring.DefaultConfig(),
		Scheduler: loadSchedulerConfig(),
	}

	preset := getEnv("CLASSIFIER_PRESET", classifier.PresetStrict)
	rules, err := classifier.ConfigForPreset(preset)
	if err != nil {
		return nil, err
	}
	applyRuleOverrides(&rules)

	config.Classifier = ClassifierConfig{
		Preset: preset,
		Rules:  rules,
		Stance: loadStanceThresholds(),
	}

	if result := Validate(config); !result.Valid {
		for _, e := range result.Errors {
			logger.WithFields(logrus.Fields{
				"field": e.Field,
				"rule":  e.Rule,
			}).Error(e.Message)
		}
		return nil, result.AsError()
	}

	logger.WithFields(logrus.Fields{
		"preset":       preset,
		"http_port":    config.HTTP.Port,
		"amqp_enabled": config.Messaging.Enabled,
	}).Info("Configuration loaded")

	return config, nil
}

// loadSchedulerConfig reads the drill scheduler tuning from the environment
func loadSchedulerConfig() drill.Config {
	defaults := drill.DefaultConfig()
	return drill.Config{
		BaseReaction:        getEnvDuration("DRILL_BASE_REACTION", defaults.BaseReaction),
		ReactionDecay:       getEnvDuration("DRILL_REACTION_DECAY", defaults.ReactionDecay),
		MinReaction:         getEnvDuration("DRILL_MIN_REACTION", defaults.MinReaction),
		AnnounceDelay:       getEnvDuration("DRILL_ANNOUNCE_DELAY", defaults.AnnounceDelay),
		HitsPerLevel:        getEnvInt("DRILL_HITS_PER_LEVEL", defaults.HitsPerLevel),
		HookUnlockLevel:     getEnvInt("DRILL_HOOK_UNLOCK_LEVEL", defaults.HookUnlockLevel),
		UppercutUnlockLevel: getEnvInt("DRILL_UPPERCUT_UNLOCK_LEVEL", defaults.UppercutUnlockLevel),
		BodyUnlockLevel:     getEnvInt("DRILL_BODY_UNLOCK_LEVEL", defaults.BodyUnlockLevel),
		ComboIdleReset:      getEnvDuration("DRILL_COMBO_IDLE_RESET", defaults.ComboIdleReset),
	}
}

// loadStanceThresholds reads the stance bounds from the environment
func loadStanceThresholds() classifier.StanceThresholds {
	defaults := classifier.DefaultStanceThresholds()
	return classifier.StanceThresholds{
		MaxShoulderTilt:  getEnvFloat("STANCE_MAX_SHOULDER_TILT", defaults.MaxShoulderTilt),
		MinShoulderWidth: getEnvFloat("STANCE_MIN_SHOULDER_WIDTH", defaults.MinShoulderWidth),
		MaxHeadOffset:    getEnvFloat("STANCE_MAX_HEAD_OFFSET", defaults.MaxHeadOffset),
	}
}

// applyRuleOverrides lets every per-class threshold be tuned without code
// changes. Variables follow CLASSIFIER_<CLASS>_<KNOB>, e.g.
// CLASSIFIER_JAB_MIN_SPEED=0.9 (lower means easier detection) or
// CLASSIFIER_LEFT_HOOK_COOLDOWN=400ms.
func applyRuleOverrides(rules *classifier.Config) {
	for _, class := range classifier.Priority {
		prefix := "CLASSIFIER_" + strings.ToUpper(string(class)) + "_"
		rule := rules.Rules[class]

		rule.MinSpeed = getEnvFloat(prefix+"MIN_SPEED", rule.MinSpeed)
		rule.MinElbowAngle = getEnvFloat(prefix+"MIN_ELBOW_ANGLE", rule.MinElbowAngle)
		rule.MaxElbowAngle = getEnvFloat(prefix+"MAX_ELBOW_ANGLE", rule.MaxElbowAngle)
		rule.MinExtension = getEnvFloat(prefix+"MIN_EXTENSION", rule.MinExtension)
		rule.ShoulderOffsetMin = getEnvFloat(prefix+"SHOULDER_OFFSET_MIN", rule.ShoulderOffsetMin)
		rule.ShoulderOffsetMax = getEnvFloat(prefix+"SHOULDER_OFFSET_MAX", rule.ShoulderOffsetMax)
		rule.HipOffsetMin = getEnvFloat(prefix+"HIP_OFFSET_MIN", rule.HipOffsetMin)
		rule.HipOffsetMax = getEnvFloat(prefix+"HIP_OFFSET_MAX", rule.HipOffsetMax)
		rule.Cooldown = getEnvDuration(prefix+"COOLDOWN", rule.Cooldown)

		rules.Rules[class] = rule
	}
}

// LogrusLevel resolves the configured log level, defaulting to info
func (l LoggingConfig) LogrusLevel() logrus.Level {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Helper function to get an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Helper function to get a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	default:
		return defaultValue
	}
}

// Helper function to get an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// Helper function to get a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getEnvFloat retrieves an environment variable and converts it to float64
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatValue
}
