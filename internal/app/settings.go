package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/state"
)

// SetWebhook stores the webhook URL. An empty URL clears it.
func (a *App) SetWebhook(raw string) error {
	return a.setURL("webhook", raw, func(st *state.PersistedState, u string) { st.WebhookURL = u })
}

// SetAlertRouter stores the alert-router URL. An empty URL clears it.
func (a *App) SetAlertRouter(raw string) error {
	return a.setURL("alert-router", raw, func(st *state.PersistedState, u string) { st.AlertRouterURL = u })
}

func (a *App) setURL(label, raw string, set func(*state.PersistedState, string)) error {
	u := strings.TrimSpace(raw)
	if u != "" {
		if err := validateURL(u); err != nil {
			return fmt.Errorf("%s url %q: %w", label, u, err)
		}
	}
	if _, err := a.state.Update(func(st *state.PersistedState) error {
		set(st, u)
		return nil
	}); err != nil {
		return err
	}
	if u == "" {
		a.printf("%s cleared\n", label)
	} else {
		a.printf("%s set\n", label)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrInvalidArgument)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https: %w", apperr.ErrInvalidArgument)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host: %w", apperr.ErrInvalidArgument)
	}
	return nil
}
