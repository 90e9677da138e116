package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/soyeahso/actiongroup/internal/app"
	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/soyeahso/actiongroup/internal/gateway"
	"github.com/spf13/cobra"
	"github.com/tillberg/autorestart"
)

func newServeCmd() *cobra.Command {
	var (
		port   int
		bind   string
		region string
		dryRun bool
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local gateway (POST /invoke, WebSocket chat on /ws)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if port != 0 {
					c.Gateway.Port = port
				}
				if bind != "" {
					c.Gateway.Bind = bind
				}
				if region != "" {
					c.AWS.Region = region
				}
				if dryRun {
					c.Action.DryRun = true
				}
			})
			if err != nil {
				return err
			}
			if err := app.Validated(cfg, log); err != nil {
				return err
			}

			if watch {
				log.Info().Msg("watching binary for changes")
				go autorestart.RestartOnChange()
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []gateway.ServerOption{
				gateway.WithDispatcher(a.Dispatcher),
				gateway.WithChat(a.Chat),
				gateway.WithHooks(a.Hooks),
			}
			if a.Audit != nil {
				opts = append(opts, gateway.WithAudit(a.Audit))
			}

			srv := gateway.New(cfg, log, opts...)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")
	cmd.Flags().StringVar(&region, "region", "", "override the default AWS region")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "record provisioning calls instead of calling AWS")
	cmd.Flags().BoolVar(&watch, "watch", false, "restart when the binary changes (development)")

	return cmd
}
