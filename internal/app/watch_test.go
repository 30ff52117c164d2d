package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/config"
	"github.com/tchow-twistedxcom/occtl/internal/fsutil"
	"github.com/tchow-twistedxcom/occtl/internal/idle"
	"github.com/tchow-twistedxcom/occtl/internal/logging"
)

func TestWatchFirstPassIsActive(t *testing.T) {
	h := newHarness(t)
	h.host.add("infra", "building...\n")

	res, err := h.app.Watch(context.Background(), WatchOptions{Name: "infra"})
	require.NoError(t, err)
	assert.Equal(t, idle.Active, res.Decision)
	assert.Nil(t, res.Report)
	assert.Contains(t, h.out.String(), "ok: infra\tactive")

	ws := h.state(t).Watch("infra")
	assert.Equal(t, idle.Fingerprint("building...\n"), ws.LastOutputFingerprint)
	assert.True(t, ws.LastChangeAt.Equal(h.now))
}

func TestWatchAlertsOnceThenDedups(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.host.add("infra", "done.\n")
	h.mapDir(t, "infra")

	_, err := h.app.Watch(ctx, WatchOptions{Name: "infra"})
	require.NoError(t, err)

	h.now = h.now.Add(30 * time.Second)
	res, err := h.app.Watch(ctx, WatchOptions{Name: "infra"})
	require.NoError(t, err)
	assert.Equal(t, idle.BelowThreshold, res.Decision)

	h.now = h.now.Add(2 * time.Minute)
	res, err = h.app.Watch(ctx, WatchOptions{Name: "infra"})
	require.NoError(t, err)
	assert.Equal(t, idle.ShouldAlert, res.Decision)
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.OK())
	require.Equal(t, 1, h.desktop.count())

	a := h.desktop.alerts[0]
	assert.Equal(t, "OpenCode waiting?", a.Title)
	assert.Equal(t, "info", a.Severity)
	assert.Equal(t, "oc-watch-infra-idle", a.Fingerprint)
	assert.Equal(t, "devbox", a.Host)
	assert.Contains(t, a.Body, "session=infra")
	assert.Contains(t, a.Body, "snippet=(none)")

	h.now = h.now.Add(time.Minute)
	res, err = h.app.Watch(ctx, WatchOptions{Name: "infra"})
	require.NoError(t, err)
	assert.Equal(t, idle.AlreadyAlerted, res.Decision)
	assert.Equal(t, 1, h.desktop.count())

	ws := h.state(t).Watch("infra")
	require.NotNil(t, ws.LastAlertAt)
}

func TestWatchRealertsAfterCooldown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.host.add("infra", "done.\n")

	_, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	h.now = h.now.Add(20 * time.Second)
	_, err = h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	require.Equal(t, 1, h.desktop.count())

	h.now = h.now.Add(31 * time.Minute)
	res, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	assert.Equal(t, idle.ShouldAlert, res.Decision)
	assert.Equal(t, 2, h.desktop.count())
}

func TestWatchOutputChangeStartsNewEpisode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.host.add("infra", "step 1\n")

	_, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	h.now = h.now.Add(20 * time.Second)
	_, err = h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	require.Equal(t, 1, h.desktop.count())

	s.pane = "step 2\n"
	h.now = h.now.Add(time.Second)
	res, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	assert.Equal(t, idle.Active, res.Decision)
	assert.Nil(t, h.state(t).Watch("infra").LastAlertAt)

	h.now = h.now.Add(20 * time.Second)
	res, err = h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	assert.Equal(t, idle.ShouldAlert, res.Decision)
	assert.Equal(t, 2, h.desktop.count())
}

func TestWatchPromptAlertsWithoutWaiting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.host.add("infra", "Apply these edits? (y/n)\n")

	res, err := h.app.Watch(ctx, WatchOptions{Name: "infra"})
	require.NoError(t, err)
	assert.Equal(t, idle.Active, res.Decision)

	res, err = h.app.Watch(ctx, WatchOptions{Name: "infra"})
	require.NoError(t, err)
	assert.Equal(t, idle.ShouldAlert, res.Decision)
	require.Equal(t, 1, h.desktop.count())
	a := h.desktop.alerts[0]
	assert.Equal(t, "OpenCode awaiting input", a.Title)
	assert.Equal(t, "warning", a.Severity)
	assert.Equal(t, "oc-watch-infra-pattern", a.Fingerprint)
	assert.Contains(t, a.Body, "snippet=Apply these edits? (y/n)")
}

func TestWatchStallAlertCarriesSnippet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.host.add("infra", "reading files\nThinking: planning next steps\n\n")

	_, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	h.now = h.now.Add(20 * time.Second)
	res, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 10})
	require.NoError(t, err)
	assert.Equal(t, idle.ShouldAlert, res.Decision)
	assert.Equal(t, idle.Stalled, res.Match.Kind)

	require.Equal(t, 1, h.desktop.count())
	a := h.desktop.alerts[0]
	assert.Equal(t, "oc-watch-infra-stall", a.Fingerprint)
	assert.Contains(t, a.Body, "snippet=Thinking: planning next steps")
}

func TestWatchDeliversToWebhookAndRouter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.host.add("infra", "quiet\n")

	var (
		mu     sync.Mutex
		bodies = map[string]map[string]any{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		mu.Lock()
		bodies[r.URL.Path] = m
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, h.app.SetWebhook(srv.URL+"/hook"))
	require.NoError(t, h.app.SetAlertRouter(srv.URL+"/router"))

	_, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 1})
	require.NoError(t, err)
	h.now = h.now.Add(5 * time.Second)
	res, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 1})
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, 3, res.Report.Delivered())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "OpenCode waiting?", bodies["/hook"]["title"])
	assert.Equal(t, "oc-watch:infra", bodies["/router"]["service_name"])
	assert.Equal(t, "oc-watch-infra-idle", bodies["/router"]["fingerprint"])
}

func TestWatchSinkFailureDoesNotFailPass(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.host.add("infra", "quiet\n")
	h.desktop.err = assert.AnError

	_, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 1})
	require.NoError(t, err)
	h.now = h.now.Add(5 * time.Second)
	res, err := h.app.Watch(ctx, WatchOptions{Name: "infra", IdleSeconds: 1})
	require.NoError(t, err)
	assert.Equal(t, idle.ShouldAlert, res.Decision)
	assert.False(t, res.Report.OK())
	assert.NotNil(t, h.state(t).Watch("infra").LastAlertAt)
}

func TestWatchErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.app.Watch(ctx, WatchOptions{})
	assert.ErrorIs(t, err, apperr.ErrNoFocusedSession)

	_, err = h.app.Watch(ctx, WatchOptions{Name: "ghost"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	h.host.err = apperr.ErrHostUnavailable
	_, err = h.app.Watch(ctx, WatchOptions{Name: "infra"})
	assert.ErrorIs(t, err, apperr.ErrHostUnavailable)
}

func TestWatchPanicWritesCrashDump(t *testing.T) {
	h := newHarness(t)
	logging.Init(logging.Config{LogDir: h.paths.Logs, Level: "debug"})
	t.Cleanup(logging.Shutdown)

	h.host.add("infra", "")
	h.host.panicOnCapture = true

	res, err := h.app.Watch(context.Background(), WatchOptions{Name: "infra"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "capture exploded")
	assert.Equal(t, apperr.ExitInternal, apperr.ExitCode(err))

	dump, readErr := os.ReadFile(filepath.Join(h.paths.Logs, CrashDumpFileName))
	require.NoError(t, readErr)
	assert.Contains(t, string(dump), "watch_panic")
}

func TestBuildAlertStalled(t *testing.T) {
	h := newHarness(t)
	a := h.app.buildAlert("infra", idle.Result{
		Decision: idle.ShouldAlert,
		IdleFor:  200 * time.Second,
		Match:    idle.Match{Kind: idle.Stalled, Pattern: "retrying", Snippet: "retrying in 5s"},
	})
	assert.Equal(t, "OpenCode stalled?", a.Title)
	assert.Equal(t, "warning", a.Severity)
	assert.Equal(t, "degraded", a.Status)
	assert.Equal(t, "oc-watch-infra-stall", a.Fingerprint)
	assert.Contains(t, a.Body, "idle for 200s")
	assert.Contains(t, a.Body, "project=(unmapped)")
}

func TestWatchFailureLogsKind(t *testing.T) {
	h := newHarness(t)
	logging.Init(logging.Config{LogDir: h.paths.Logs, Level: "debug"})
	t.Cleanup(logging.Shutdown)

	_, err := h.app.Watch(context.Background(), WatchOptions{Name: "ghost"})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	dump := filepath.Join(t.TempDir(), "ring.jsonl")
	require.NoError(t, logging.DumpRingBuffer(dump))
	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"watch_failed"`)
	assert.Contains(t, string(data), `"kind":"not_found"`)

	_, statErr := os.Stat(filepath.Join(h.paths.Logs, CrashDumpFileName))
	assert.True(t, os.IsNotExist(statErr), "expected failures do not dump")
}

func TestWatchLockContentionIsBusyNotCrash(t *testing.T) {
	cfg := config.Default()
	cfg.Timeouts.LockSeconds = 1
	h := newHarnessWithConfig(t, cfg)
	logging.Init(logging.Config{LogDir: h.paths.Logs})
	t.Cleanup(logging.Shutdown)
	h.host.add("infra", "quiet\n")

	held, err := fsutil.Lock(h.paths.State+".lock", time.Second)
	require.NoError(t, err)
	defer held.Unlock()

	_, err = h.app.Watch(context.Background(), WatchOptions{Name: "infra"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBusy)
	assert.Equal(t, apperr.ExitBusy, apperr.ExitCode(err))

	_, statErr := os.Stat(filepath.Join(h.paths.Logs, CrashDumpFileName))
	assert.True(t, os.IsNotExist(statErr))
}
