package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soyeahso/actiongroup/internal/app"
	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/soyeahso/actiongroup/internal/session"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the knowledge base from the terminal",
		Long: "chat reads one message per line and prints each turn as \"role: content\".\n" +
			"Type /history to reprint the conversation and /quit to leave. With arguments,\n" +
			"a single message is sent and the command exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if backend != "" {
					c.Chat.Backend = backend
				}
				// Chat never provisions.
				c.Action.DryRun = true
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

			t := &terminal{
				chat:    a.Chat,
				out:     cmd.OutOrStdout(),
				timeout: time.Duration(cfg.Chat.TimeoutSeconds) * time.Second,
			}
			if len(args) > 0 {
				t.send(ctx, strings.Join(args, " "))
				return nil
			}
			return t.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "override chat backend (placeholder, lambda)")
	return cmd
}

// terminal is the line-oriented chat surface. It owns the only State.
type terminal struct {
	chat    *session.Manager
	out     io.Writer
	timeout time.Duration
	state   session.State
}

func (t *terminal) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/history":
			render(t.out, t.state.History)
			continue
		}
		t.send(ctx, line)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func (t *terminal) send(ctx context.Context, text string) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	before := len(t.state.History)
	t.state, _ = t.chat.Submit(ctx, t.state, text)
	render(t.out, t.state.History[before:])
}

func render(w io.Writer, msgs []session.ChatMessage) {
	for _, m := range msgs {
		fmt.Fprintf(w, "%s: %s\n", m.Role, m.Content)
	}
}
