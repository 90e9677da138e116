package config

import (
	"fmt"
	"os"
)

// FallbackRegion is used when neither the config file nor AWS_REGION names one.
const FallbackRegion = "us-east-1"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// DefaultRegion resolves the process-wide default region from AWS_REGION,
// falling back to FallbackRegion.
func DefaultRegion() string {
	if v := os.Getenv("AWS_REGION"); v != "" {
		return v
	}
	return FallbackRegion
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		AWS: AWSConfig{
			Region: DefaultRegion(),
		},
		Chat: ChatConfig{
			Backend:        "placeholder",
			FunctionName:   "InvokeKnowledgeBase",
			TimeoutSeconds: 60,
		},
		Gateway: GatewayConfig{
			Port: 18790,
			Bind: "loopback",
		},
		Audit: AuditConfig{
			Store: "none",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
