package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "trade.countdown_ticks")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTrade()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateTrade validates the TradeConfig
func (c *Config) validateTrade() []ValidationError {
	var errors []ValidationError

	if c.Trade.CountdownTicks < 1 {
		errors = append(errors, ValidationError{
			Field:   "trade.countdown_ticks",
			Value:   c.Trade.CountdownTicks,
			Message: "must be at least 1",
		})
	}

	if c.Trade.TickIntervalMs < 1 {
		errors = append(errors, ValidationError{
			Field:   "trade.tick_interval_ms",
			Value:   c.Trade.TickIntervalMs,
			Message: "must be at least 1",
		})
	}

	if c.Trade.QueueCapacity < 1 {
		errors = append(errors, ValidationError{
			Field:   "trade.queue_capacity",
			Value:   c.Trade.QueueCapacity,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
