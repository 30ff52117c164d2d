package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
)

// ErrLockTimeout is returned when another process holds a lock past the
// deadline. It is an apperr.ErrBusy.
var ErrLockTimeout = fmt.Errorf("timed out waiting for file lock: %w", apperr.ErrBusy)

const lockPollInterval = 25 * time.Millisecond

// FileLock is an exclusive flock(2) held on a sidecar lock file.
// Locks taken through separate Lock calls conflict even inside one process,
// since each call opens its own file description.
type FileLock struct {
	f *os.File
}

// Lock acquires an exclusive lock on path, polling until timeout elapses.
// A non-positive timeout makes a single attempt.
func Lock(path string, timeout time.Duration) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &FileLock{f: f}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			f.Close()
			return nil, fmt.Errorf("flock %s: %w", filepath.Base(path), err)
		}
		if !time.Now().Before(deadline) {
			f.Close()
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrLockTimeout)
		}
		time.Sleep(lockPollInterval)
	}
}

// Unlock releases the lock. Safe to call on a nil lock.
func (l *FileLock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
