package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tchow-twistedxcom/occtl/internal/app"
	"github.com/tchow-twistedxcom/occtl/internal/apperr"
)

func newRootCmd(env *cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:   "oc",
		Short: "Drive OpenCode sessions in tmux by name or by voice",
		Long: `oc maps project names to directories, keeps each project's OpenCode
agent in its own tmux session, remembers which session is focused, and
alerts you when an agent goes quiet.

Get started:
  oc map infra ~/src/infra    Remember where a project lives
  oc new infra                Start it in tmux and focus it
  oc say run the tests        Type into the focused session
  oc watch                    One idle check (run it from cron)`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.App()
			if err != nil {
				return err
			}
			return a.Status(cmd.Context(), "")
		},
	}
	root.SetVersionTemplate("oc version {{.Version}}\n")
	root.PersistentFlags().BoolVar(&env.debug, "debug", false, "force debug-level logging")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	})

	root.AddCommand(
		newMapCmd(env),
		newMapsCmd(env),
		newNewCmd(env),
		newEnsureCmd(env),
		newLsCmd(env),
		newFocusCmd(env),
		newFocusedCmd(env),
		newSayCmd(env),
		newEnterCmd(env),
		newStatusCmd(env),
		newAttachCmd(env),
		newKillCmd(env),
		newWatchCmd(env),
		newVoiceCmd(env),
		newSetWebhookCmd(env),
		newSetAlertRouterCmd(env),
	)
	return root
}

// usageArgs reports argument-count errors as invalid arguments (exit 2).
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
		}
		return nil
	}
}

// withApp adapts an App method to a cobra RunE.
func withApp(env *cliEnv, fn func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := env.App()
		if err != nil {
			return err
		}
		return fn(cmd, a, args)
	}
}

// completeSessions offers mapped and running session names for the first
// positional argument.
func completeSessions(env *cliEnv) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		a, err := env.App()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		names, err := a.SessionNames(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var out []string
		for _, n := range names {
			if strings.HasPrefix(n, toComplete) {
				out = append(out, n)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

func sessionFlag(fs *pflag.FlagSet, target *string) {
	fs.StringVarP(target, "session", "s", "", "target session (default: focused)")
}
