package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/tmux"
)

type fakeSession struct {
	dir      string
	windows  int
	attached bool
	sent     []string
	enters   int
	pane     string
	activity time.Time
}

// fakeHost is an in-memory tmux.Host.
type fakeHost struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	launched map[string]string
	attached []string
	// err, when set, is returned by every call.
	err error
	// panicOnCapture makes Capture panic.
	panicOnCapture bool
}

var _ tmux.Host = (*fakeHost)(nil)

func newFakeHost() *fakeHost {
	return &fakeHost{sessions: map[string]*fakeSession{}, launched: map[string]string{}}
}

func (h *fakeHost) add(name, pane string) *fakeSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &fakeSession{windows: 3, pane: pane}
	h.sessions[name] = s
	return s
}

func (h *fakeHost) get(name string) (*fakeSession, error) {
	if h.err != nil {
		return nil, h.err
	}
	s, ok := h.sessions[name]
	if !ok {
		return nil, fmt.Errorf("can't find session: %s: %w", name, apperr.ErrNotFound)
	}
	return s, nil
}

func (h *fakeHost) Exists(_ context.Context, name string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return false, h.err
	}
	_, ok := h.sessions[name]
	return ok, nil
}

func (h *fakeHost) Create(_ context.Context, name, workDir, launch string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	if _, ok := h.sessions[name]; ok {
		return nil
	}
	h.sessions[name] = &fakeSession{dir: workDir, windows: 3}
	h.launched[name] = launch
	return nil
}

func (h *fakeHost) List(context.Context) ([]tmux.SessionInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	var out []tmux.SessionInfo
	for name, s := range h.sessions {
		out = append(out, tmux.SessionInfo{Name: name, Attached: s.attached, Windows: s.windows})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (h *fakeHost) SendText(_ context.Context, name, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(name)
	if err != nil {
		return err
	}
	s.sent = append(s.sent, text)
	return nil
}

func (h *fakeHost) SendEnter(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(name)
	if err != nil {
		return err
	}
	s.enters++
	return nil
}

func (h *fakeHost) Capture(_ context.Context, name string, _ int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicOnCapture {
		panic("capture exploded")
	}
	s, err := h.get(name)
	if err != nil {
		return "", err
	}
	return s.pane, nil
}

func (h *fakeHost) LastActivity(_ context.Context, name string) (time.Time, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.get(name)
	if err != nil {
		return time.Time{}, err
	}
	return s.activity, nil
}

func (h *fakeHost) Kill(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.get(name); err != nil {
		return err
	}
	delete(h.sessions, name)
	return nil
}

func (h *fakeHost) Attach(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.get(name); err != nil {
		return err
	}
	h.attached = append(h.attached, name)
	return nil
}

func (h *fakeHost) session(name string) *fakeSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[name]
}
