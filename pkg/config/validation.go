package config

import (
	"fmt"
	"strings"

	"punchcoach-server/pkg/errors"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationWarning represents a configuration validation warning
type ValidationWarning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidationResult represents the result of configuration validation
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors,omitempty"`
	Warnings []ValidationWarning `json:"warnings,omitempty"`
}

// AsError collapses the result into a single error for fatal handling
func (r *ValidationResult) AsError() error {
	if r.Valid {
		return nil
	}
	messages := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return errors.Wrap(errors.ErrInvalidConfig, strings.Join(messages, "; "))
}

// Validate checks the entire configuration. Domain packages validate their
// own threshold tables; this adds the server-level field checks on top.
func Validate(config *Config) *ValidationResult {
	result := &ValidationResult{Valid: true}

	addError := func(field, rule, message string) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Field: field, Rule: rule, Message: message})
	}

	if config.HTTP.Enabled {
		if config.HTTP.Port < 1 || config.HTTP.Port > 65535 {
			addError("http.port", "port_range", "HTTP port must be between 1 and 65535")
		}
		if config.HTTP.ReadTimeout <= 0 {
			addError("http.read_timeout", "positive_duration", "HTTP read timeout must be positive")
		}
		if config.HTTP.WriteTimeout <= 0 {
			addError("http.write_timeout", "positive_duration", "HTTP write timeout must be positive")
		}
	}

	if config.Messaging.Enabled && config.Messaging.URL == "" {
		addError("messaging.url", "required", "AMQP_URL is required when AMQP_ENABLED is set")
	}
	if config.Messaging.Enabled && config.Messaging.QueueName == "" {
		addError("messaging.queue_name", "required", "AMQP queue name must not be empty")
	}

	if err := config.Classifier.Rules.Validate(); err != nil {
		addError("classifier.rules", "domain", err.Error())
	}
	if err := config.Classifier.Stance.Validate(); err != nil {
		addError("classifier.stance", "domain", err.Error())
	}
	if err := config.Scoring.Validate(); err != nil {
		addError("scoring", "domain", err.Error())
	}
	if err := config.Scheduler.Validate(); err != nil {
		addError("scheduler", "domain", err.Error())
	}

	if !config.Messaging.Enabled {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:      "messaging.enabled",
			Message:    "AMQP publishing is disabled, events are only available over WebSocket",
			Suggestion: "set AMQP_ENABLED=true and AMQP_URL to publish events to a queue",
		})
	}

	return result
}
