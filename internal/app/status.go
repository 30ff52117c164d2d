package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
)

// Status prints focus, mapping, liveness, idle time and notification
// settings for name, or for the focused session when name is empty.
// Host failures degrade the report instead of failing it.
func (a *App) Status(ctx context.Context, name string) error {
	st, err := a.state.Load()
	if err != nil {
		return err
	}

	target := st.Focused
	if name != "" {
		target = a.resolveName(ctx, name)
	}

	rows := [][]string{{"focus:", orNone(st.Focused)}}
	if target != st.Focused {
		rows = append(rows, []string{"session:", target})
	}

	dir := "(n/a)"
	if target != "" {
		switch d, err := a.mappings.Get(target); {
		case err == nil:
			dir = d
		case errors.Is(err, apperr.ErrNotFound):
			dir = "(unmapped)"
		default:
			return err
		}
	}
	rows = append(rows, []string{"dir:", dir})

	session, idle := "(n/a)", "(n/a)"
	if target != "" {
		session, idle = a.liveStatus(ctx, target)
	}
	rows = append(rows, []string{"state:", session}, []string{"idle_seconds:", idle})

	lastAlert := "(none)"
	if ws := st.Watch(target); ws.LastAlertAt != nil {
		lastAlert = ws.LastAlertAt.Local().Format(time.RFC3339)
	}
	rows = append(rows,
		[]string{"last_alert:", lastAlert},
		[]string{"webhook:", setOrNone(st.WebhookURL)},
		[]string{"alert_router:", setOrNone(st.AlertRouterURL)},
	)

	kvTable(a.out, rows)
	return nil
}

func (a *App) liveStatus(ctx context.Context, name string) (session, idle string) {
	live, err := a.host.Exists(ctx, name)
	switch {
	case err != nil:
		cliLog.Warn("status_host_error", "session", name, "error", err.Error())
		return "(host unavailable)", "(n/a)"
	case !live:
		return "stopped", "(n/a)"
	}

	session = "running"
	if rows, err := a.host.List(ctx); err == nil {
		for _, r := range rows {
			if r.Name != name {
				continue
			}
			session = fmt.Sprintf("running, %d windows", r.Windows)
			if r.Attached {
				session += ", attached"
			}
		}
	}

	last, err := a.host.LastActivity(ctx, name)
	if err != nil {
		return session, "(n/a)"
	}
	delta := a.now().Sub(last)
	if delta < 0 {
		delta = 0
	}
	return session, fmt.Sprint(int64(delta / time.Second))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func setOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return "set"
}
