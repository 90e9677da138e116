package config

// Config is the root configuration for actiongroup.
type Config struct {
	AWS     AWSConfig     `yaml:"aws,omitempty"`
	Action  ActionConfig  `yaml:"action,omitempty"`
	Chat    ChatConfig    `yaml:"chat,omitempty"`
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Audit   AuditConfig   `yaml:"audit,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// AWSConfig controls how AWS clients are built.
type AWSConfig struct {
	Region   string `yaml:"region,omitempty"`   // default region for provisioning and chat backend
	Profile  string `yaml:"profile,omitempty"`  // shared config profile; empty uses the default chain
	Endpoint string `yaml:"endpoint,omitempty"` // custom endpoint (localstack)
}

// ActionConfig controls the action dispatcher.
type ActionConfig struct {
	StrictKinds bool `yaml:"strictKinds,omitempty"` // unsupported resource kinds become errors
	DryRun      bool `yaml:"dryRun,omitempty"`      // record provisioning calls instead of calling AWS
}

// ChatConfig controls the chat session backend.
type ChatConfig struct {
	Backend        string `yaml:"backend,omitempty"`      // "placeholder" | "lambda"
	FunctionName   string `yaml:"functionName,omitempty"` // knowledge-base Lambda function
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// GatewayConfig controls the local HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// AuditConfig controls the dispatch audit log.
type AuditConfig struct {
	Store string `yaml:"store,omitempty"` // "none" | "sqlite"
	Path  string `yaml:"path,omitempty"`  // database file; empty uses <data>/actiongroup.db
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
