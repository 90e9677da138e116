// Package app assembles the dispatcher, chat manager, hooks and audit log
// from a loaded configuration. The CLI and the Lambda entry point share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/soyeahso/actiongroup/internal/action"
	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/soyeahso/actiongroup/internal/hooks"
	"github.com/soyeahso/actiongroup/internal/logging"
	"github.com/soyeahso/actiongroup/internal/provision"
	"github.com/soyeahso/actiongroup/internal/session"
	"github.com/soyeahso/actiongroup/internal/store"
)

// App holds the wired components.
type App struct {
	Config     config.Config
	Hooks      *hooks.Manager
	Dispatcher *action.Dispatcher
	Chat       *session.Manager

	// Recorder is set in dry-run mode and holds every provisioning call.
	Recorder *provision.Recorder

	// Audit is nil unless audit.store is "sqlite".
	Audit *store.AuditStore

	db *store.DB
}

// AWSLoader loads SDK configuration. Tests replace it.
type AWSLoader func(ctx context.Context, cfg config.AWSConfig) (aws.Config, error)

// LoadAWSConfig resolves credentials through the default chain, pinned to the
// configured region and optional shared profile.
func LoadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// Build wires an App. paths locates the audit database; loader may be nil to
// use LoadAWSConfig. AWS configuration is only loaded when something needs it.
func Build(ctx context.Context, cfg config.Config, paths config.Paths, log *logging.Logger, loader AWSLoader) (*App, error) {
	if loader == nil {
		loader = LoadAWSConfig
	}

	a := &App{
		Config: cfg,
		Hooks:  hooks.NewManager(log),
	}

	if cfg.Audit.Store == "sqlite" {
		db, err := store.Open(paths.AuditDBPath(cfg.Audit), log)
		if err != nil {
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		a.db = db
		a.Audit = store.NewAuditStore(db)
		a.Audit.Subscribe(a.Hooks)
	}

	var awsCfg aws.Config
	if !cfg.Action.DryRun || cfg.Chat.Backend == "lambda" {
		var err error
		awsCfg, err = loader(ctx, cfg.AWS)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	var p action.Provisioner
	if cfg.Action.DryRun {
		a.Recorder = provision.NewRecorder()
		p = a.Recorder
		log.Info().Msg("dry run: provisioning calls are recorded, not sent")
	} else {
		p = provision.NewAWSFromConfig(awsCfg, cfg.AWS.Endpoint, log)
	}

	a.Dispatcher = action.NewDispatcher(p, cfg.AWS.Region,
		action.WithStrictKinds(cfg.Action.StrictKinds),
		action.WithLogger(log),
		action.WithHooks(a.Hooks),
	)

	var backend session.BackendInvoker
	if cfg.Chat.Backend == "lambda" {
		client := lambda.NewFromConfig(awsCfg, func(o *lambda.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
		})
		backend = session.NewLambdaBackend(client, cfg.Chat.FunctionName)
	}
	a.Chat = session.NewManager(backend, cfg.AWS.Region, log, session.WithHooks(a.Hooks))

	log.Debug().
		Str("region", cfg.AWS.Region).
		Bool("dryRun", cfg.Action.DryRun).
		Bool("strictKinds", cfg.Action.StrictKinds).
		Str("chatBackend", cfg.Chat.Backend).
		Str("audit", cfg.Audit.Store).
		Msg("components wired")

	return a, nil
}

// Close releases the audit database, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// ErrInvalidConfig is returned by Validated when validation reports issues.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validated runs config.Validate, logs each issue and returns an error when
// any were found.
func Validated(cfg config.Config, log *logging.Logger) error {
	issues := config.Validate(&cfg)
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		log.Error().Str("path", issue.Path).Msg(issue.Message)
	}
	return fmt.Errorf("%w: %d issue(s)", ErrInvalidConfig, len(issues))
}
