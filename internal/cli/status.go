package cli

import (
	"fmt"
	"strings"

	"github.com/soyeahso/actiongroup/internal/action"
	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/soyeahso/actiongroup/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show actiongroup status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "actiongroup %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}

			endpoint := cfg.AWS.Endpoint
			if endpoint == "" {
				endpoint = "(aws)"
			}
			fmt.Fprintf(out, "AWS:     region=%s profile=%q endpoint=%s\n", cfg.AWS.Region, cfg.AWS.Profile, endpoint)

			kinds := make([]string, 0, len(action.KindTable))
			for _, rule := range action.KindTable {
				kinds = append(kinds, rule.Kind.String())
			}
			fmt.Fprintf(out, "Action:  kinds=%s strict=%v dryRun=%v\n", strings.Join(kinds, ","), cfg.Action.StrictKinds, cfg.Action.DryRun)

			chat := cfg.Chat.Backend
			if chat == "lambda" {
				chat += " function=" + cfg.Chat.FunctionName
			}
			fmt.Fprintf(out, "Chat:    backend=%s timeout=%ds\n", chat, cfg.Chat.TimeoutSeconds)
			fmt.Fprintf(out, "Gateway: port=%d bind=%s\n", cfg.Gateway.Port, cfg.Gateway.Bind)

			audit := cfg.Audit.Store
			if audit == "sqlite" {
				audit += " path=" + paths.AuditDBPath(cfg.Audit)
			}
			fmt.Fprintf(out, "Audit:   %s\n", audit)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
