package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tchow-twistedxcom/occtl/internal/app"
)

func newMapCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "map <name> <path>",
		Short: "Map a project name to a directory",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: withApp(env, func(_ *cobra.Command, a *app.App, args []string) error {
			return a.Map(args[0], args[1])
		}),
	}
}

func newMapsCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "maps",
		Short: "List project mappings",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(env, func(_ *cobra.Command, a *app.App, _ []string) error {
			return a.Maps()
		}),
	}
}

func newNewCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:               "new <name>",
		Short:             "Start a mapped project's session and focus it",
		Args:              usageArgs(cobra.ExactArgs(1)),
		ValidArgsFunction: completeSessions(env),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.New(cmd.Context(), args[0])
		}),
	}
}

func newEnsureCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:               "ensure <name>",
		Short:             "Focus a session, starting it if needed",
		Args:              usageArgs(cobra.ExactArgs(1)),
		ValidArgsFunction: completeSessions(env),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Ensure(cmd.Context(), args[0])
		}),
	}
}

func newLsCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List running tmux sessions",
		Args:    usageArgs(cobra.NoArgs),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, _ []string) error {
			return a.List(cmd.Context())
		}),
	}
}

func newFocusCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:               "focus <name>",
		Short:             "Make a session the default target",
		Args:              usageArgs(cobra.ExactArgs(1)),
		ValidArgsFunction: completeSessions(env),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Focus(cmd.Context(), args[0])
		}),
	}
}

func newFocusedCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "focused",
		Short: "Print the focused session",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(env, func(_ *cobra.Command, a *app.App, _ []string) error {
			return a.Focused()
		}),
	}
}

func newSayCmd(env *cliEnv) *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "say [--session s] <text...>",
		Short: "Type text into a session and press Enter",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Say(cmd.Context(), session, strings.Join(args, " "))
		}),
	}
	sessionFlag(cmd.Flags(), &session)
	return cmd
}

func newEnterCmd(env *cliEnv) *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "enter [--session s]",
		Short: "Press Enter in a session",
		Args:  usageArgs(cobra.NoArgs),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, _ []string) error {
			return a.Enter(cmd.Context(), session)
		}),
	}
	sessionFlag(cmd.Flags(), &session)
	return cmd
}

func newStatusCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:               "status [name]",
		Short:             "Show focus, liveness, idle time and alert settings",
		Args:              usageArgs(cobra.MaximumNArgs(1)),
		ValidArgsFunction: completeSessions(env),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Status(cmd.Context(), firstArg(args))
		}),
	}
}

func newAttachCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:               "attach [name]",
		Short:             "Attach to a session, or pick one interactively",
		Args:              usageArgs(cobra.MaximumNArgs(1)),
		ValidArgsFunction: completeSessions(env),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, args []string) error {
			env.initTheme()
			return a.Attach(cmd.Context(), firstArg(args))
		}),
	}
}

func newKillCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:               "kill [name]",
		Short:             "Kill a session and forget its watch state",
		Args:              usageArgs(cobra.MaximumNArgs(1)),
		ValidArgsFunction: completeSessions(env),
		RunE: withApp(env, func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Kill(cmd.Context(), firstArg(args))
		}),
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
