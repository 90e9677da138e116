package cli

import (
	"context"
	"fmt"

	"github.com/soyeahso/actiongroup/internal/app"
	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/soyeahso/actiongroup/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actiongroup",
		Short: "actiongroup: Bedrock agent action group for SQS and SNS",
		Long: "actiongroup executes Bedrock agent function calls that provision SQS queues and SNS topics,\n" +
			"and hosts a chat session against the agent's knowledge base.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			// Logging settings come from the file when it parses; a broken
			// file is reported by the command that needs it.
			logCfg := config.Defaults().Logging
			if cfg, err := config.Load(paths.Config); err == nil {
				logCfg = cfg.Logging
			}
			level := logLevel
			if level == "" {
				level = logCfg.Level
			}
			log = logging.NewStyled(logCfg.ConsoleStyle, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.actiongroup/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInvokeCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig loads the config file and applies the per-command overrides.
func loadConfig(override func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if override != nil {
		override(&cfg)
	}
	return cfg, nil
}

// buildApp wires the components for cfg, creating the data directory first
// when the audit log lives there.
func buildApp(ctx context.Context, cfg config.Config) (*app.App, error) {
	if cfg.Audit.Store == "sqlite" {
		if err := paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("creating data directories: %w", err)
		}
	}
	return app.Build(ctx, cfg, paths, log, nil)
}
