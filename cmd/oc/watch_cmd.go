package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tchow-twistedxcom/occtl/internal/app"
	"github.com/tchow-twistedxcom/occtl/internal/apperr"
)

func newWatchCmd(env *cliEnv) *cobra.Command {
	var opts app.WatchOptions
	cmd := &cobra.Command{
		Use:   "watch [--name s] [--idle-seconds N] [--capture-lines N]",
		Short: "Run one idle check and alert if the agent went quiet",
		Long: `watch captures the session's pane, compares it with the last capture and
alerts once per idle episode. It performs a single pass; schedule it every
minute with cron, launchd or a systemd timer.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, _ []string) error {
			if opts.IdleSeconds < 0 || opts.CaptureLines < 0 {
				return fmt.Errorf("--idle-seconds and --capture-lines must be positive: %w", apperr.ErrInvalidArgument)
			}
			_, err := a.Watch(cmd.Context(), opts)
			return err
		}),
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "session to watch (default: focused)")
	cmd.Flags().IntVar(&opts.IdleSeconds, "idle-seconds", 0, "idle threshold override in seconds")
	cmd.Flags().IntVar(&opts.CaptureLines, "capture-lines", 0, "pane lines to capture")
	_ = cmd.RegisterFlagCompletionFunc("name", completeSessions(env))
	return cmd
}

func newVoiceCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "voice <phrase...>",
		Short: "Run a dictated phrase, e.g. \"open infra\" or \"tell infra run tests\"",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Voice(cmd.Context(), strings.Join(args, " "))
		}),
	}
}

func newSetWebhookCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "set-webhook <url>",
		Short: "Post idle alerts to a webhook (empty URL clears)",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: withApp(env, func(_ *cobra.Command, a *app.App, args []string) error {
			return a.SetWebhook(args[0])
		}),
	}
}

func newSetAlertRouterCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "set-alert-router <url>",
		Short: "Post idle alerts to an alert router (empty URL clears)",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: withApp(env, func(_ *cobra.Command, a *app.App, args []string) error {
			return a.SetAlertRouter(args[0])
		}),
	}
}
