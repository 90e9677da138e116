package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.AWS.Region == "" {
		issues = append(issues, ValidationIssue{
			Path:    "aws.region",
			Message: "region is required",
		})
	}

	// Chat validation
	validBackends := []string{"placeholder", "lambda"}
	if cfg.Chat.Backend != "" && !slices.Contains(validBackends, cfg.Chat.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "chat.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Chat.Backend),
		})
	}
	if cfg.Chat.Backend == "lambda" && cfg.Chat.FunctionName == "" {
		issues = append(issues, ValidationIssue{
			Path:    "chat.functionName",
			Message: "required when chat.backend is lambda",
		})
	}
	if cfg.Chat.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "chat.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Chat.TimeoutSeconds),
		})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	// Audit validation
	validStores := []string{"none", "sqlite"}
	if cfg.Audit.Store != "" && !slices.Contains(validStores, cfg.Audit.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "audit.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Audit.Store),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
