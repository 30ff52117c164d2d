// Package app is occtl's command dispatcher. Each exported method is one
// CLI subcommand; voice phrases resolve to the same methods.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/config"
	"github.com/tchow-twistedxcom/occtl/internal/logging"
	"github.com/tchow-twistedxcom/occtl/internal/mapping"
	"github.com/tchow-twistedxcom/occtl/internal/notify"
	"github.com/tchow-twistedxcom/occtl/internal/state"
	"github.com/tchow-twistedxcom/occtl/internal/tmux"
	"github.com/tchow-twistedxcom/occtl/internal/ui"
	"github.com/tchow-twistedxcom/occtl/internal/voice"
)

var cliLog = logging.ForComponent(logging.CompCLI)

// Options wires an App. Only Config, Paths and Host are required.
type Options struct {
	Config *config.UserConfig
	Paths  config.Paths
	Host   tmux.Host
	Out    io.Writer

	Now         func() time.Time
	Hostname    func() (string, error)
	Desktop     notify.Sink
	Picker      func(rows []ui.Row) (string, bool, error)
	Interactive func() bool
}

// App composes the stores, the session host and the notifier.
type App struct {
	cfg      *config.UserConfig
	paths    config.Paths
	mappings *mapping.Store
	state    *state.Store
	host     tmux.Host
	out      io.Writer

	now         func() time.Time
	hostname    func() (string, error)
	desktop     notify.Sink
	pick        func(rows []ui.Row) (string, bool, error)
	interactive func() bool
}

// New returns an App. Unset optional hooks get their production defaults.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{
		cfg:         cfg,
		paths:       opts.Paths,
		mappings:    mapping.NewStore(opts.Paths.Mappings, cfg.Timeouts.Lock()),
		state:       state.NewStore(opts.Paths.State, cfg.Timeouts.Lock()),
		host:        opts.Host,
		out:         opts.Out,
		now:         opts.Now,
		hostname:    opts.Hostname,
		desktop:     opts.Desktop,
		pick:        opts.Picker,
		interactive: opts.Interactive,
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.hostname == nil {
		a.hostname = os.Hostname
	}
	if a.desktop == nil {
		a.desktop = notify.NewDesktopSink()
	}
	if a.pick == nil {
		a.pick = func(rows []ui.Row) (string, bool, error) { return ui.Pick(rows) }
	}
	if a.interactive == nil {
		a.interactive = func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		}
	}
	return a
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// resolveSession returns the explicit session, else the focused one.
func (a *App) resolveSession(ctx context.Context, st *state.PersistedState, explicit string) (string, error) {
	if name := strings.TrimSpace(explicit); name != "" {
		return a.resolveName(ctx, name), nil
	}
	if st.Focused == "" {
		return "", fmt.Errorf("no session given and nothing focused; run: oc focus <name>: %w", apperr.ErrNoFocusedSession)
	}
	return st.Focused, nil
}

// resolveName maps a spoken multi-word name ("gig guide") to the dashed
// mapping key ("gig-guide") when the name itself is neither mapped nor live.
func (a *App) resolveName(ctx context.Context, name string) string {
	candidates := voice.Candidates(name)
	if len(candidates) == 1 {
		return name
	}
	if _, err := a.mappings.Get(name); err == nil {
		return name
	}
	if live, err := a.host.Exists(ctx, name); err == nil && live {
		return name
	}
	for _, c := range candidates[1:] {
		if _, err := a.mappings.Get(c); err == nil {
			cliLog.Debug("name_resolved", "spoken", name, "mapping", c)
			return c
		}
	}
	return name
}

// requireLive fails with apperr.ErrNotFound unless the session is running.
func (a *App) requireLive(ctx context.Context, name string) error {
	ok, err := a.host.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session not found: %s: %w", name, apperr.ErrNotFound)
	}
	return nil
}

func (a *App) setFocus(name string) error {
	_, err := a.state.Update(func(st *state.PersistedState) error {
		st.Focused = name
		return nil
	})
	return err
}
