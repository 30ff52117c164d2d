package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func withProcVersion(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "version")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	old := procVersionPath
	procVersionPath = path
	t.Cleanup(func() { procVersionPath = old })
}

func TestDetectIsCached(t *testing.T) {
	p := Detect()
	assert.NotEmpty(t, p)
	assert.Equal(t, p, Detect())
	if runtime.GOOS == "darwin" {
		assert.Equal(t, PlatformMacOS, p)
	}
}

func TestDetect(t *testing.T) {
	withProcVersion(t, "Linux version 6.8.0-45-generic (buildd@lcy02-amd64-075)")

	assert.Equal(t, PlatformMacOS, detect("darwin", noEnv))
	assert.Equal(t, PlatformLinux, detect("linux", noEnv))
	assert.Equal(t, PlatformUnknown, detect("windows", noEnv))
	assert.Equal(t, PlatformUnknown, detect("plan9", noEnv))
}

func TestDetectWSL(t *testing.T) {
	withProcVersion(t, "Linux version 5.15.153.1-microsoft-standard-WSL2")
	assert.Equal(t, PlatformWSL, detect("linux", noEnv))
}

func TestDetectWSLFromEnv(t *testing.T) {
	withProcVersion(t, "Linux version 6.8.0")
	env := func(k string) string {
		if k == "WSL_DISTRO_NAME" {
			return "Ubuntu"
		}
		return ""
	}
	assert.Equal(t, PlatformWSL, detect("linux", env))
}

func TestDetectUnreadableProcVersion(t *testing.T) {
	old := procVersionPath
	procVersionPath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { procVersionPath = old })

	assert.Equal(t, PlatformLinux, detect("linux", noEnv))
}

func TestNotifier(t *testing.T) {
	assert.Equal(t, NotifierOsascript, PlatformMacOS.Notifier())
	assert.Equal(t, NotifierNotifySend, PlatformLinux.Notifier())
	assert.Equal(t, NotifierNotifySend, PlatformWSL.Notifier())
	assert.Equal(t, NotifierNone, PlatformUnknown.Notifier())
}

func TestPlatformString(t *testing.T) {
	tests := []struct {
		platform Platform
		expected string
	}{
		{PlatformMacOS, "macOS"},
		{PlatformLinux, "Linux"},
		{PlatformWSL, "WSL"},
		{PlatformUnknown, "Unknown"},
		{Platform("bogus"), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.platform.String())
	}
}
