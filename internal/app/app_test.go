package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/soyeahso/actiongroup/internal/action"
	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/soyeahso/actiongroup/internal/logging"
	"github.com/soyeahso/actiongroup/internal/provision"
	"github.com/soyeahso/actiongroup/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func testPaths(t *testing.T) config.Paths {
	base := t.TempDir()
	return config.Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
	}
}

func dryRunConfig() config.Config {
	cfg := config.Defaults()
	cfg.AWS.Region = "eu-west-1"
	cfg.Action.DryRun = true
	return cfg
}

func failingLoader(t *testing.T) AWSLoader {
	return func(context.Context, config.AWSConfig) (aws.Config, error) {
		t.Fatal("AWS config should not be loaded")
		return aws.Config{}, nil
	}
}

func sqsRequest() action.Request {
	return action.Request{
		ActionGroup:    "aws-resources",
		Function:       "create_resource",
		MessageVersion: "1.0",
		Parameters: []action.Parameter{
			{Name: "resource", Type: action.ParamString, Value: "sqs"},
			{Name: "name", Type: action.ParamString, Value: "Orders"},
		},
	}
}

func TestBuild_DryRunSkipsAWS(t *testing.T) {
	a, err := Build(context.Background(), dryRunConfig(), testPaths(t), testLog(), failingLoader(t))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Recorder)
	assert.Nil(t, a.Audit)

	_, err = a.Dispatcher.Dispatch(context.Background(), sqsRequest())
	require.NoError(t, err)

	calls := a.Recorder.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, provision.KindQueue, calls[0].Kind)
	assert.Equal(t, "eu-west-1", calls[0].Region)
	assert.Equal(t, "orders", calls[0].Name)
}

func TestBuild_PlaceholderChat(t *testing.T) {
	a, err := Build(context.Background(), dryRunConfig(), testPaths(t), testLog(), failingLoader(t))
	require.NoError(t, err)
	defer a.Close()

	state, reply := a.Chat.Submit(context.Background(), session.State{}, "hi")
	assert.Equal(t, `prompt was: "hi" in region eu-west-1`, reply)
	assert.Len(t, state.History, 2)
}

func TestBuild_StrictKinds(t *testing.T) {
	cfg := dryRunConfig()
	cfg.Action.StrictKinds = true
	a, err := Build(context.Background(), cfg, testPaths(t), testLog(), failingLoader(t))
	require.NoError(t, err)
	defer a.Close()

	req := sqsRequest()
	req.Parameters[0].Value = "dynamodb"
	_, err = a.Dispatcher.Dispatch(context.Background(), req)
	assert.ErrorIs(t, err, action.ErrUnsupportedResource)
}

func TestBuild_AuditRecordsDispatches(t *testing.T) {
	cfg := dryRunConfig()
	cfg.Audit.Store = "sqlite"
	paths := testPaths(t)

	a, err := Build(context.Background(), cfg, paths, testLog(), failingLoader(t))
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Audit)
	assert.FileExists(t, paths.AuditDBPath(cfg.Audit))

	_, err = a.Dispatcher.Dispatch(context.Background(), sqsRequest())
	require.NoError(t, err)

	a.Recorder.Fail = errors.New("denied")
	_, err = a.Dispatcher.Dispatch(context.Background(), sqsRequest())
	require.Error(t, err)

	invs, err := a.Audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, "failed", invs[0].Outcome)
	assert.Equal(t, "ok", invs[1].Outcome)
	assert.Equal(t, "orders", invs[1].Name)
}

func TestBuild_LoadsAWSWhenProvisioning(t *testing.T) {
	cfg := dryRunConfig()
	cfg.Action.DryRun = false

	var loaded config.AWSConfig
	loader := func(_ context.Context, c config.AWSConfig) (aws.Config, error) {
		loaded = c
		return aws.Config{Region: c.Region}, nil
	}

	a, err := Build(context.Background(), cfg, testPaths(t), testLog(), loader)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "eu-west-1", loaded.Region)
	assert.Nil(t, a.Recorder)
}

func TestBuild_LambdaBackendLoadsAWS(t *testing.T) {
	cfg := dryRunConfig()
	cfg.Chat.Backend = "lambda"
	cfg.Chat.FunctionName = "InvokeKnowledgeBase"

	calls := 0
	loader := func(_ context.Context, c config.AWSConfig) (aws.Config, error) {
		calls++
		return aws.Config{Region: c.Region}, nil
	}

	a, err := Build(context.Background(), cfg, testPaths(t), testLog(), loader)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, 1, calls)
}

func TestBuild_LoaderError(t *testing.T) {
	cfg := dryRunConfig()
	cfg.Action.DryRun = false
	cause := errors.New("no credentials")

	_, err := Build(context.Background(), cfg, testPaths(t), testLog(),
		func(context.Context, config.AWSConfig) (aws.Config, error) { return aws.Config{}, cause })
	assert.ErrorIs(t, err, cause)
}

func TestValidated(t *testing.T) {
	assert.NoError(t, Validated(dryRunConfig(), testLog()))

	cfg := dryRunConfig()
	cfg.Chat.Backend = "carrier-pigeon"
	err := Validated(cfg, testLog())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
