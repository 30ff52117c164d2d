package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/state"
	"github.com/tchow-twistedxcom/occtl/internal/ui"
)

// Map records name → path.
func (a *App) Map(name, path string) error {
	abs, err := a.mappings.Set(name, path)
	if err != nil {
		return err
	}
	a.printf("mapped: %s -> %s\n", name, abs)
	return nil
}

// Maps prints every mapping.
func (a *App) Maps() error {
	entries, err := a.mappings.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		a.printf("(no mappings)\n")
		return nil
	}
	t := newTable(a.out, "NAME", "PATH")
	for _, e := range entries {
		t.Append([]string{e.Name, e.Path})
	}
	t.Render()
	return nil
}

// New creates the session in its mapped directory and focuses it. An
// already running session is only focused.
func (a *App) New(ctx context.Context, name string) error {
	name = a.resolveName(ctx, name)

	live, err := a.host.Exists(ctx, name)
	if err != nil {
		return err
	}
	if live {
		if err := a.setFocus(name); err != nil {
			return err
		}
		a.printf("exists+focused: %s\n", name)
		return nil
	}

	dir, err := a.mappings.Get(name)
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("no mapping for %q; add one with: oc map %s /path/to/project: %w", name, name, apperr.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return fmt.Errorf("mapped directory does not exist: %s: %w", dir, apperr.ErrNotFound)
	}

	if err := a.host.Create(ctx, name, dir, a.cfg.Session.LaunchCommand); err != nil {
		return err
	}
	if _, err := a.state.Update(func(st *state.PersistedState) error {
		st.Focused = name
		delete(st.Sessions, name)
		return nil
	}); err != nil {
		return err
	}
	cliLog.Info("session_new", "session", name, "dir", dir)
	a.printf("created+focused: %s\tdir=%s\n", name, dir)
	return nil
}

// Ensure focuses the session, creating it first when it is not running.
func (a *App) Ensure(ctx context.Context, name string) error {
	name = a.resolveName(ctx, name)
	live, err := a.host.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !live {
		return a.New(ctx, name)
	}
	if err := a.setFocus(name); err != nil {
		return err
	}
	a.printf("focused: %s\n", name)
	return nil
}

// List prints the running sessions.
func (a *App) List(ctx context.Context) error {
	rows, err := a.host.List(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		a.printf("(no tmux sessions)\n")
		return nil
	}
	st, err := a.state.Load()
	if err != nil {
		return err
	}
	t := newTable(a.out, "SESSION", "ATTACHED", "WINDOWS", "FOCUS")
	for _, r := range rows {
		focus := ""
		if r.Name == st.Focused {
			focus = "*"
		}
		t.Append([]string{r.Name, strconv.FormatBool(r.Attached), strconv.Itoa(r.Windows), focus})
	}
	t.Render()
	return nil
}

// Focus makes name the implicit target of later commands. The session need
// not exist yet; it is re-validated whenever it is used.
func (a *App) Focus(ctx context.Context, name string) error {
	name = a.resolveName(ctx, name)
	if name == "" {
		return fmt.Errorf("session name is empty: %w", apperr.ErrInvalidArgument)
	}
	if err := a.setFocus(name); err != nil {
		return err
	}
	a.printf("focused: %s\n", name)
	return nil
}

// Focused prints the focused session, or nothing.
func (a *App) Focused() error {
	st, err := a.state.Load()
	if err != nil {
		return err
	}
	if st.Focused != "" {
		a.printf("%s\n", st.Focused)
	}
	return nil
}

// Say types text into the session followed by Enter.
func (a *App) Say(ctx context.Context, session, text string) error {
	if text == "" {
		return fmt.Errorf("nothing to say: %w", apperr.ErrInvalidArgument)
	}
	st, err := a.state.Load()
	if err != nil {
		return err
	}
	name, err := a.resolveSession(ctx, st, session)
	if err != nil {
		return err
	}
	if err := a.requireLive(ctx, name); err != nil {
		return err
	}
	if err := a.host.SendText(ctx, name, text); err != nil {
		return err
	}
	if err := a.host.SendEnter(ctx, name); err != nil {
		return err
	}
	cliLog.Info("say", "session", name, "bytes", len(text))
	a.printf("sent: %s\t%s\n", name, text)
	return nil
}

// Enter presses Enter in the session.
func (a *App) Enter(ctx context.Context, session string) error {
	st, err := a.state.Load()
	if err != nil {
		return err
	}
	name, err := a.resolveSession(ctx, st, session)
	if err != nil {
		return err
	}
	if err := a.requireLive(ctx, name); err != nil {
		return err
	}
	if err := a.host.SendEnter(ctx, name); err != nil {
		return err
	}
	a.printf("enter: %s\n", name)
	return nil
}

// Kill terminates the session, forgets its watch state and clears focus
// if it pointed there.
func (a *App) Kill(ctx context.Context, session string) error {
	st, err := a.state.Load()
	if err != nil {
		return err
	}
	name, err := a.resolveSession(ctx, st, session)
	if err != nil {
		return err
	}
	if err := a.requireLive(ctx, name); err != nil {
		return err
	}
	if err := a.host.Kill(ctx, name); err != nil {
		return err
	}
	if _, err := a.state.Update(func(st *state.PersistedState) error {
		st.Forget(name)
		return nil
	}); err != nil {
		return err
	}
	a.printf("killed: %s\n", name)
	return nil
}

// Attach hands the terminal to the session, starting it from its mapping
// if needed. Without a name it shows the picker.
func (a *App) Attach(ctx context.Context, name string) error {
	if name == "" {
		if !a.interactive() {
			return fmt.Errorf("attach needs a session name when not run from a terminal: %w", apperr.ErrInvalidArgument)
		}
		rows, err := a.pickerRows(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no mapped or running sessions: %w", apperr.ErrNotFound)
		}
		chosen, ok, err := a.pick(rows)
		if err != nil {
			return err
		}
		if !ok {
			a.printf("attach cancelled\n")
			return nil
		}
		name = chosen
	}

	name = a.resolveName(ctx, name)
	live, err := a.host.Exists(ctx, name)
	if err != nil {
		return err
	}
	if live {
		if err := a.setFocus(name); err != nil {
			return err
		}
	} else {
		if _, err := a.mappings.Get(name); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return fmt.Errorf("session not found: %s: %w", name, apperr.ErrNotFound)
			}
			return err
		}
		if err := a.New(ctx, name); err != nil {
			return err
		}
	}
	return a.host.Attach(name)
}

func (a *App) pickerRows(ctx context.Context) ([]ui.Row, error) {
	entries, err := a.mappings.List()
	if err != nil {
		return nil, err
	}
	live, err := a.host.List(ctx)
	if err != nil {
		return nil, err
	}
	st, err := a.state.Load()
	if err != nil {
		return nil, err
	}
	return ui.BuildRows(entries, live, st.Focused), nil
}

// SessionNames returns mapped and running session names, sorted and
// deduplicated. Host errors are ignored so completion works without tmux.
func (a *App) SessionNames(ctx context.Context) ([]string, error) {
	entries, err := a.mappings.List()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Name] = true
	}
	if live, err := a.host.List(ctx); err == nil {
		for _, s := range live {
			seen[s.Name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
