package app

import (
	"context"
	"fmt"

	"github.com/tchow-twistedxcom/occtl/internal/voice"
)

// Voice parses a dictated phrase and runs the command it names. Voice never
// attaches interactively: "open" and "attach" only change focus.
func (a *App) Voice(ctx context.Context, phrase string) error {
	st, err := a.state.Load()
	if err != nil {
		return err
	}
	intent, err := voice.Parse(phrase, st.Focused)
	if err != nil {
		return err
	}
	cliLog.Info("voice", "intent", intent.String())

	switch intent.Action {
	case voice.ActionStatus:
		return a.Status(ctx, "")
	case voice.ActionList:
		return a.List(ctx)
	case voice.ActionEnsure:
		return a.Ensure(ctx, intent.Session)
	case voice.ActionNew:
		return a.New(ctx, intent.Session)
	case voice.ActionFocus:
		return a.Focus(ctx, intent.Session)
	case voice.ActionEnter:
		return a.Enter(ctx, "")
	case voice.ActionSay:
		return a.Say(ctx, intent.Session, intent.Text)
	default:
		return fmt.Errorf("unhandled intent %s", intent)
	}
}
