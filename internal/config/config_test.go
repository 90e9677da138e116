package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	cfg := Defaults()
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "placeholder", cfg.Chat.Backend)
	assert.Equal(t, "InvokeKnowledgeBase", cfg.Chat.FunctionName)
	assert.Equal(t, 60, cfg.Chat.TimeoutSeconds)
	assert.Equal(t, 18790, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "none", cfg.Audit.Store)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Action.StrictKinds)
}

func TestDefaultRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	assert.Equal(t, FallbackRegion, DefaultRegion())

	t.Setenv("AWS_REGION", "ap-southeast-2")
	assert.Equal(t, "ap-southeast-2", DefaultRegion())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.AWS.Region)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
aws:
  region: eu-west-1
  endpoint: http://localhost:4566
action:
  strictKinds: true
chat:
  backend: lambda
  functionName: KnowledgeBaseQA
  timeoutSeconds: 15
gateway:
  port: 9999
  bind: lan
audit:
  store: sqlite
  path: /tmp/audit.db
logging:
  level: debug
  consoleStyle: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "http://localhost:4566", cfg.AWS.Endpoint)
	assert.True(t, cfg.Action.StrictKinds)
	assert.Equal(t, "lambda", cfg.Chat.Backend)
	assert.Equal(t, "KnowledgeBaseQA", cfg.Chat.FunctionName)
	assert.Equal(t, 15, cfg.Chat.TimeoutSeconds)
	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "lan", cfg.Gateway.Bind)
	assert.Equal(t, "sqlite", cfg.Audit.Store)
	assert.Equal(t, "/tmp/audit.db", cfg.Audit.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("action:\n  dryRun: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Action.DryRun)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "placeholder", cfg.Chat.Backend)
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("KB_FUNCTION", "prod-kb")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat:\n  functionName: ${KB_FUNCTION}\n  backend: lambda\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod-kb", cfg.Chat.FunctionName)
}

func TestExpandEnvVarsLeavesUnset(t *testing.T) {
	assert.Equal(t, "${ACTIONGROUP_SURELY_UNSET_VAR}", expandEnvVars("${ACTIONGROUP_SURELY_UNSET_VAR}"))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ACTIONGROUP_REGION", "sa-east-1")
	t.Setenv("ACTIONGROUP_STRICT_KINDS", "true")
	t.Setenv("ACTIONGROUP_CHAT_BACKEND", "LAMBDA")
	t.Setenv("ACTIONGROUP_GATEWAY_PORT", "12345")
	t.Setenv("ACTIONGROUP_AUDIT_STORE", "sqlite")
	t.Setenv("ACTIONGROUP_LOG_LEVEL", "TRACE")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sa-east-1", cfg.AWS.Region)
	assert.True(t, cfg.Action.StrictKinds)
	assert.Equal(t, "lambda", cfg.Chat.Backend)
	assert.Equal(t, 12345, cfg.Gateway.Port)
	assert.Equal(t, "sqlite", cfg.Audit.Store)
	assert.Equal(t, "trace", cfg.Logging.Level)
}

func TestLoadEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("ACTIONGROUP_GATEWAY_PORT", "not-a-port")
	t.Setenv("ACTIONGROUP_DRY_RUN", "maybe")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 18790, cfg.Gateway.Port)
	assert.False(t, cfg.Action.DryRun)
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"aws.region", []string{"aws", "region"}, false},
		{"chat", []string{"chat"}, false},
		{"", nil, true},
		{"a..b", nil, true},
		{".aws", nil, true},
		{"__proto__.x", nil, true},
		{"x.constructor", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetSetValueAtPath(t *testing.T) {
	root := map[string]any{
		"aws": map[string]any{
			"region": "us-east-1",
		},
	}

	val, ok := GetValueAtPath(root, []string{"aws", "region"})
	assert.True(t, ok)
	assert.Equal(t, "us-east-1", val)

	_, ok = GetValueAtPath(root, []string{"aws", "missing"})
	assert.False(t, ok)

	SetValueAtPath(root, []string{"aws", "region"}, "eu-west-1")
	val, ok = GetValueAtPath(root, []string{"aws", "region"})
	assert.True(t, ok)
	assert.Equal(t, "eu-west-1", val)

	SetValueAtPath(root, []string{"chat", "backend"}, "lambda")
	val, ok = GetValueAtPath(root, []string{"chat", "backend"})
	assert.True(t, ok)
	assert.Equal(t, "lambda", val)

	// a scalar in the way is replaced by a map
	SetValueAtPath(root, []string{"aws", "region", "nested"}, 1)
	val, ok = GetValueAtPath(root, []string{"aws", "region", "nested"})
	assert.True(t, ok)
	assert.Equal(t, 1, val)
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"chat": map[string]any{
			"backend":      "lambda",
			"functionName": "kb",
		},
	}

	assert.True(t, UnsetValueAtPath(root, []string{"chat", "backend"}))
	_, exists := GetValueAtPath(root, []string{"chat", "backend"})
	assert.False(t, exists)

	val, exists := GetValueAtPath(root, []string{"chat", "functionName"})
	assert.True(t, exists)
	assert.Equal(t, "kb", val)

	assert.False(t, UnsetValueAtPath(root, []string{"chat", "nonexistent"}))
	assert.False(t, UnsetValueAtPath(root, []string{"missing", "key"}))
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := map[string]any{
		"gateway": map[string]any{
			"port": 9999,
		},
	}

	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(loaded, []string{"gateway", "port"})
	assert.True(t, ok)
	assert.Equal(t, 9999, val)
}

func TestLoadRawMissingFile(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestResolvePaths(t *testing.T) {
	t.Setenv("ACTIONGROUP_HOME", "")

	paths, err := ResolvePaths()
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".actiongroup"), paths.Base)
	assert.Equal(t, filepath.Join(home, ".actiongroup", "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(home, ".actiongroup", "data"), paths.Data)
}

func TestResolvePathsCustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("ACTIONGROUP_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "config.yaml"), paths.Config)
}

func TestEnsureDirs(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("ACTIONGROUP_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, paths.EnsureDirs())

	for _, d := range []string{paths.Base, paths.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestAuditDBPath(t *testing.T) {
	p := Paths{Data: "/var/lib/actiongroup"}
	assert.Equal(t, "/var/lib/actiongroup/actiongroup.db", p.AuditDBPath(AuditConfig{}))
	assert.Equal(t, "/tmp/x.db", p.AuditDBPath(AuditConfig{Path: "/tmp/x.db"}))
}
