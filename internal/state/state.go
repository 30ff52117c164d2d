// Package state persists occtl's process-wide state: the focused session,
// notification endpoints, and the watcher's per-session memory.
//
// The file is indented JSON so it can be read and fixed by hand. Every
// mutation goes through Store.Update, which holds an advisory lock across
// load → mutate → atomic save so concurrent oc invocations (a voice command
// arriving while the timer fires `oc watch`) never interleave.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/fsutil"
	"github.com/tchow-twistedxcom/occtl/internal/logging"
)

var stateLog = logging.ForComponent(logging.CompState)

// PersistedState is the singleton record stored in state.json.
type PersistedState struct {
	Focused        string                        `json:"focused"`
	WebhookURL     string                        `json:"webhook_url"`
	AlertRouterURL string                        `json:"alert_router_url"`
	Sessions       map[string]*SessionWatchState `json:"sessions"`
}

// SessionWatchState is the watcher's memory of one session.
type SessionWatchState struct {
	LastOutputFingerprint string     `json:"last_output_fingerprint"`
	LastChangeAt          time.Time  `json:"last_change_at"`
	LastAlertAt           *time.Time `json:"last_alert_at,omitempty"`
}

// New returns an empty state.
func New() *PersistedState {
	return &PersistedState{Sessions: map[string]*SessionWatchState{}}
}

// Watch returns the watch state for name, or the zero value if none.
func (p *PersistedState) Watch(name string) SessionWatchState {
	if ws, ok := p.Sessions[name]; ok && ws != nil {
		return *ws
	}
	return SessionWatchState{}
}

// SetWatch replaces the watch state for name.
func (p *PersistedState) SetWatch(name string, ws SessionWatchState) {
	if p.Sessions == nil {
		p.Sessions = map[string]*SessionWatchState{}
	}
	p.Sessions[name] = &ws
}

// Forget drops the watch state for name and clears focus if it pointed there.
func (p *PersistedState) Forget(name string) {
	delete(p.Sessions, name)
	if p.Focused == name {
		p.Focused = ""
	}
}

// Store loads and saves state.json.
type Store struct {
	path        string
	lockTimeout time.Duration
}

// NewStore returns a store backed by path.
func NewStore(path string, lockTimeout time.Duration) *Store {
	return &Store{path: path, lockTimeout: lockTimeout}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state. A missing file yields an empty state; unparsable
// content fails with apperr.ErrCorruptState and is left untouched.
func (s *Store) Load() (*PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(s.path), err)
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		stateLog.Error("state_corrupt", "path", s.path, "error", err.Error())
		return nil, fmt.Errorf("%s: %v: %w", s.path, err, apperr.ErrCorruptState)
	}
	if st.Sessions == nil {
		st.Sessions = map[string]*SessionWatchState{}
	}
	return st, nil
}

// Save atomically replaces the state file. Callers that read first should
// use Update instead so the read and write happen under one lock.
func (s *Store) Save(st *PersistedState) error {
	lock, err := fsutil.Lock(s.lockPath(), s.lockTimeout)
	if err != nil {
		return fmt.Errorf("lock state: %w", err)
	}
	defer lock.Unlock()
	return s.save(st)
}

// Update runs fn on the current state and saves the result, holding the
// lock for the whole cycle. If fn returns an error nothing is written.
func (s *Store) Update(fn func(*PersistedState) error) (*PersistedState, error) {
	lock, err := fsutil.Lock(s.lockPath(), s.lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("lock state: %w", err)
	}
	defer lock.Unlock()

	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if err := s.save(st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) save(st *PersistedState) error {
	if st.Sessions == nil {
		st.Sessions = map[string]*SessionWatchState{}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return err
	}
	stateLog.Debug("state_saved", "path", s.path, "focused", st.Focused, "sessions", len(st.Sessions))
	return nil
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}
