package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/soyeahso/actiongroup/internal/action"
	"github.com/soyeahso/actiongroup/internal/app"
	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/spf13/cobra"
)

func newInvokeCmd() *cobra.Command {
	var (
		region string
		dryRun bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "invoke [event.json]",
		Short: "Dispatch one action-group event read from a file or stdin",
		Long: "invoke reads a Bedrock agent function-call event, runs it the way the Lambda would,\n" +
			"and prints the function response. With no file, or \"-\", the event is read from stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readEvent(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			req, err := action.ParseRequest(data)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(func(c *config.Config) {
				if region != "" {
					c.AWS.Region = region
				}
				if dryRun {
					c.Action.DryRun = true
				}
				if strict {
					c.Action.StrictKinds = true
				}
			})
			if err != nil {
				return err
			}
			if err := app.Validated(cfg, log); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, dispatchErr := a.Dispatcher.Dispatch(ctx, req)
			resp := res.Response
			if dispatchErr != nil {
				resp = action.FailureResponse(req, dispatchErr)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}

			if a.Recorder != nil {
				for _, c := range a.Recorder.Calls() {
					fmt.Fprintf(cmd.ErrOrStderr(), "[dry-run] create %s name=%s region=%s\n", c.Kind, c.Name, c.Region)
				}
			}
			return dispatchErr
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "override the default AWS region")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "record provisioning calls instead of calling AWS")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on unsupported resource kinds")

	return cmd
}

func readEvent(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading event: %w", err)
	}
	return data, nil
}
