package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "mappings.toml"), time.Second)
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	cases := map[string]string{
		"infra":     "/srv/infra",
		"finance":   "/home/me/finance",
		"gig guide": "/home/me/src/gig-guide",
		"a.b:c-d":   "/tmp/x",
	}
	for n, p := range cases {
		got, err := s.Set(n, p)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	for n, p := range cases {
		got, err := s.Get(n)
		require.NoError(t, err)
		assert.Equal(t, p, got, n)
	}
}

func TestListSortedLatestWins(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Set("zeta", "/z")
	require.NoError(t, err)
	_, err = s.Set("alpha", "/a1")
	require.NoError(t, err)
	_, err = s.Set("mid", "/m")
	require.NoError(t, err)
	_, err = s.Set("alpha", "/a2")
	require.NoError(t, err)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "alpha", Path: "/a2"},
		{Name: "mid", Path: "/m"},
		{Name: "zeta", Path: "/z"},
	}, entries)
}

func TestGetUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSetRejectsEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Set("", "/x")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = s.Set("infra", "  ")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestSetRelativeAndHomePaths(t *testing.T) {
	s := newTestStore(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := s.Set("h", "~/proj")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "proj"), got)

	wd, err := os.Getwd()
	require.NoError(t, err)
	got, err = s.Set("r", "sub/dir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "sub", "dir"), got)
}

func TestSetDoesNotResolveSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.Symlink(target, link))

	s := newTestStore(t)
	got, err := s.Set("l", link)
	require.NoError(t, err)
	assert.Equal(t, link, got)
}

func TestHandEditedFileLoads(t *testing.T) {
	s := newTestStore(t)
	content := "# my projects\n[map]\ninfra = \"/srv/infra\"\n\"gig guide\" = '/home/me/gig'\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o600))

	p, err := s.Get("gig guide")
	require.NoError(t, err)
	assert.Equal(t, "/home/me/gig", p)

	// A later Set keeps the hand-written entries.
	_, err = s.Set("new", "/n")
	require.NoError(t, err)
	entries, err := s.List()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("[map\ninfra = "), 0o600))

	_, err := s.Get("infra")
	assert.ErrorIs(t, err, apperr.ErrCorruptState)
	_, err = s.Set("infra", "/x")
	assert.ErrorIs(t, err, apperr.ErrCorruptState)

	// The corrupt file is left for the user to inspect.
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "[map\ninfra = ", string(data))
}

func TestConcurrentSetsKeepEveryEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.toml")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := NewStore(path, 5*time.Second)
			_, err := s.Set(fmt.Sprintf("s%02d", i), fmt.Sprintf("/p/%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := NewStore(path, time.Second).List()
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}
