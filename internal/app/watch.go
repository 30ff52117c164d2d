package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/idle"
	"github.com/tchow-twistedxcom/occtl/internal/logging"
	"github.com/tchow-twistedxcom/occtl/internal/notify"
	"github.com/tchow-twistedxcom/occtl/internal/state"
)

var watchLog = logging.ForComponent(logging.CompWatch)

// CrashDumpFileName is written to the logs directory when a watch pass
// fails unexpectedly.
const CrashDumpFileName = "watch-crash.jsonl"

// WatchOptions overrides config for one watch pass. Zero values use config.
type WatchOptions struct {
	Name         string
	IdleSeconds  int
	CaptureLines int
}

// WatchResult is the outcome of one pass.
type WatchResult struct {
	Session  string
	Decision idle.Decision
	IdleFor  time.Duration
	Match    idle.Match
	Report   *notify.Report
}

// Watch performs one idle check of a session and alerts when it has been
// idle past the threshold. The decision and the state change happen in one
// locked load-mutate-save; notification happens after the lock is released.
//
// Watch never panics: a panic becomes an error, and unexpected failures
// dump the recent log records next to the log file.
func (a *App) Watch(ctx context.Context, opts WatchOptions) (res *WatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			watchLog.Error("watch_panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			err = fmt.Errorf("watch panicked: %v", r)
			res = nil
		}
		if err != nil {
			watchLog.Error("watch_failed", "session", opts.Name, "kind", apperr.Kind(err), "error", err.Error())
			if unexpected(err) {
				a.dumpCrash()
			}
		}
	}()
	return a.watch(ctx, opts)
}

func unexpected(err error) bool {
	code := apperr.ExitCode(err)
	return code == apperr.ExitInternal || code == apperr.ExitCorruptState
}

func (a *App) dumpCrash() {
	if a.paths.Logs == "" {
		return
	}
	path := filepath.Join(a.paths.Logs, CrashDumpFileName)
	if err := logging.DumpRingBuffer(path); err != nil {
		watchLog.Error("crash_dump_failed", "path", path, "error", err.Error())
	}
}

func (a *App) watch(ctx context.Context, opts WatchOptions) (*WatchResult, error) {
	st, err := a.state.Load()
	if err != nil {
		return nil, err
	}
	name, err := a.resolveSession(ctx, st, opts.Name)
	if err != nil {
		return nil, err
	}
	if err := a.requireLive(ctx, name); err != nil {
		return nil, err
	}

	lines := opts.CaptureLines
	if lines <= 0 {
		lines = a.cfg.Watch.CaptureLines
	}
	text, err := a.host.Capture(ctx, name, lines)
	if err != nil {
		return nil, err
	}

	detector := idle.FingerprintDetector{
		IdleThreshold:   a.cfg.Watch.IdleThreshold(),
		PromptThreshold: a.cfg.Watch.PromptThreshold(),
		RealertCooldown: a.cfg.Watch.RealertCooldown(),
	}
	if opts.IdleSeconds > 0 {
		detector.IdleThreshold = time.Duration(opts.IdleSeconds) * time.Second
	}

	now := a.now()
	var (
		eval      idle.Result
		persisted *state.PersistedState
	)
	persisted, err = a.state.Update(func(st *state.PersistedState) error {
		eval = detector.Evaluate(st.Watch(name), text, now)
		st.SetWatch(name, eval.Next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &WatchResult{Session: name, Decision: eval.Decision, IdleFor: eval.IdleFor, Match: eval.Match}
	watchLog.Info("watch_pass",
		"session", name,
		"decision", eval.Decision.String(),
		"idle_seconds", int64(eval.IdleFor/time.Second),
		"threshold_seconds", int64(eval.Threshold/time.Second),
		"kind", eval.Match.Kind.String())

	idleSecs := int64(eval.IdleFor / time.Second)
	switch eval.Decision {
	case idle.Active:
		a.printf("ok: %s\tactive\n", name)
	case idle.BelowThreshold:
		a.printf("ok: %s\tidle=%ds\n", name, idleSecs)
	case idle.AlreadyAlerted:
		a.printf("ok: %s\tidle=%ds\talready alerted\n", name, idleSecs)
	case idle.ShouldAlert:
		alert := a.buildAlert(name, eval)
		n := notify.New(a.cfg.Timeouts.Notify(),
			a.desktop,
			notify.NewWebhookSink(persisted.WebhookURL),
			notify.NewAlertRouterSink(persisted.AlertRouterURL))
		report := n.Notify(ctx, alert)
		res.Report = &report
		if !report.OK() {
			watchLog.Warn("alert_partially_delivered",
				"session", name,
				"failed", len(report.Failed()),
				"sinks", len(report.Deliveries))
		}
		a.printf("notified: %s\tidle=%ds\tkind=%s\tsinks=%d/%d\n",
			name, idleSecs, eval.Match.Kind, report.Delivered(), len(report.Deliveries))
	}
	return res, nil
}

// buildAlert renders the alert for a ShouldAlert pass.
func (a *App) buildAlert(session string, eval idle.Result) notify.Alert {
	idleSecs := int64(eval.IdleFor / time.Second)
	alert := notify.Alert{Session: session, Status: "degraded"}

	var reason, detail, suffix string
	switch eval.Match.Kind {
	case idle.AwaitingInput:
		alert.Title = "OpenCode awaiting input"
		alert.Severity = "warning"
		reason = "AI agent waiting for input"
		detail = fmt.Sprintf("prompt pattern '%s' matched", eval.Match.Pattern)
		suffix = "pattern"
	case idle.Stalled:
		alert.Title = "OpenCode stalled?"
		alert.Severity = "warning"
		reason = "AI agent appears stalled"
		detail = fmt.Sprintf("stall pattern '%s' matched and idle for %ds", eval.Match.Pattern, idleSecs)
		suffix = "stall"
	default:
		alert.Title = "OpenCode waiting?"
		alert.Severity = "info"
		reason = "No output detected"
		detail = fmt.Sprintf("idle for %ds", idleSecs)
		suffix = "idle"
	}

	host, err := a.hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	alert.Host = host
	alert.Fingerprint = fmt.Sprintf("oc-watch-%s-%s", session, suffix)

	snippet := eval.Match.Snippet
	if snippet == "" {
		snippet = "(none)"
	}
	alert.Body = fmt.Sprintf("%s; session=%s; project=%s; host=%s; detail=%s; snippet=%s",
		reason, session, a.projectDir(session), host, detail, snippet)
	return alert
}

func (a *App) projectDir(session string) string {
	dir, err := a.mappings.Get(session)
	if err == nil {
		return dir
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		watchLog.Warn("mapping_lookup_failed", "session", session, "error", err.Error())
	}
	return "(unmapped)"
}
