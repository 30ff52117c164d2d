// Package mapping persists session-name → project-directory associations in
// a human-editable TOML file:
//
//	[map]
//	infra = "/Users/me/src/infra"
package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/fsutil"
)

// Entry is one session-name → directory association.
type Entry struct {
	Name string
	Path string
}

type mappingFile struct {
	Map map[string]string `toml:"map"`
}

// Store reads and writes the mappings file. Every mutation holds an advisory
// lock and rewrites the whole table atomically.
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

// Set upserts name → path. The path is expanded (~) and made absolute but
// symlinks are left alone; it does not need to exist yet.
func (s *Store) Set(name, path string) (string, error) {
	name = strings.TrimSpace(name)
	path = strings.TrimSpace(path)
	if name == "" {
		return "", fmt.Errorf("%w: session name is empty", apperr.ErrInvalidArgument)
	}
	if path == "" {
		return "", fmt.Errorf("%w: path for %q is empty", apperr.ErrInvalidArgument, name)
	}
	abs, err := absPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}

	lock, err := fsutil.Lock(s.path+".lock", s.lockTimeout)
	if err != nil {
		return "", fmt.Errorf("lock mappings: %w", err)
	}
	defer lock.Unlock()

	m, err := s.read()
	if err != nil {
		return "", err
	}
	m[name] = abs
	if err := s.write(m); err != nil {
		return "", err
	}
	return abs, nil
}

// Get returns the directory mapped to name.
func (s *Store) Get(name string) (string, error) {
	m, err := s.read()
	if err != nil {
		return "", err
	}
	p, ok := m[name]
	if !ok {
		return "", fmt.Errorf("no mapping for %q: %w", name, apperr.ErrNotFound)
	}
	return p, nil
}

// List returns every mapping sorted by name.
func (s *Store) List() ([]Entry, error) {
	m, err := s.read()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(m))
	for name, p := range m {
		entries = append(entries, Entry{Name: name, Path: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// read loads the table. A missing file is an empty table.
func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(s.path), err)
	}

	var f mappingFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", s.path, err, apperr.ErrCorruptState)
	}
	if f.Map == nil {
		f.Map = map[string]string{}
	}
	return f.Map, nil
}

func (s *Store) write(m map[string]string) error {
	var buf bytes.Buffer
	buf.WriteString("# occtl session mappings: name = \"/absolute/project/dir\"\n")
	if err := toml.NewEncoder(&buf).Encode(mappingFile{Map: m}); err != nil {
		return fmt.Errorf("encode mappings: %w", err)
	}
	return fsutil.WriteFileAtomic(s.path, buf.Bytes(), 0o600)
}

func absPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
