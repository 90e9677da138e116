package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandReferences lets fields that commonly differ per deployment be
// written as ${ENV_VAR} in the file.
func expandReferences(cfg *Config) {
	cfg.AWS.Region = expandEnvVars(cfg.AWS.Region)
	cfg.AWS.Profile = expandEnvVars(cfg.AWS.Profile)
	cfg.AWS.Endpoint = expandEnvVars(cfg.AWS.Endpoint)
	cfg.Chat.FunctionName = expandEnvVars(cfg.Chat.FunctionName)
	cfg.Audit.Path = expandEnvVars(cfg.Audit.Path)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	expandReferences(&cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = DefaultRegion()
	}
	if cfg.Chat.Backend == "" {
		cfg.Chat.Backend = "placeholder"
	}
	if cfg.Chat.FunctionName == "" {
		cfg.Chat.FunctionName = "InvokeKnowledgeBase"
	}
	if cfg.Chat.TimeoutSeconds == 0 {
		cfg.Chat.TimeoutSeconds = 60
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18790
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Audit.Store == "" {
		cfg.Audit.Store = "none"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads ACTIONGROUP_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ACTIONGROUP_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("ACTIONGROUP_AWS_ENDPOINT"); v != "" {
		cfg.AWS.Endpoint = v
	}
	if v := os.Getenv("ACTIONGROUP_STRICT_KINDS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Action.StrictKinds = b
		}
	}
	if v := os.Getenv("ACTIONGROUP_DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Action.DryRun = b
		}
	}
	if v := os.Getenv("ACTIONGROUP_CHAT_BACKEND"); v != "" {
		cfg.Chat.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("ACTIONGROUP_CHAT_FUNCTION"); v != "" {
		cfg.Chat.FunctionName = v
	}
	if v := os.Getenv("ACTIONGROUP_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("ACTIONGROUP_AUDIT_STORE"); v != "" {
		cfg.Audit.Store = strings.ToLower(v)
	}
	if v := os.Getenv("ACTIONGROUP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ACTIONGROUP_LOG_STYLE"); v != "" {
		cfg.Logging.ConsoleStyle = strings.ToLower(v)
	}
}
