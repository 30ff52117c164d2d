// Package platform identifies the host OS so occtl can pick the desktop
// notification mechanism it has available.
package platform

import (
	"os"
	"runtime"
	"strings"
	"sync"
)

// Platform represents the detected platform
type Platform string

const (
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformWSL     Platform = "wsl"
	PlatformUnknown Platform = "unknown"
)

var (
	detectOnce sync.Once
	detected   Platform

	// procVersionPath is swapped in tests.
	procVersionPath = "/proc/version"
)

// Detect returns the current platform, caching the result.
func Detect() Platform {
	detectOnce.Do(func() {
		detected = detect(runtime.GOOS, os.Getenv)
	})
	return detected
}

func detect(goos string, getenv func(string) string) Platform {
	switch goos {
	case "darwin":
		return PlatformMacOS
	case "linux":
		if isWSL(getenv) {
			return PlatformWSL
		}
		return PlatformLinux
	default:
		return PlatformUnknown
	}
}

// isWSL checks WSL_DISTRO_NAME first, then the kernel signature.
func isWSL(getenv func(string) string) bool {
	if getenv("WSL_DISTRO_NAME") != "" {
		return true
	}
	data, err := os.ReadFile(procVersionPath)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}

// DesktopNotifier is the command used to raise a desktop notification.
type DesktopNotifier string

const (
	NotifierOsascript  DesktopNotifier = "osascript"
	NotifierNotifySend DesktopNotifier = "notify-send"
	NotifierNone       DesktopNotifier = ""
)

// Notifier returns the desktop notification command for p. WSL uses
// notify-send, which works when a WSLg or wsl-notify-send shim is installed.
func (p Platform) Notifier() DesktopNotifier {
	switch p {
	case PlatformMacOS:
		return NotifierOsascript
	case PlatformLinux, PlatformWSL:
		return NotifierNotifySend
	default:
		return NotifierNone
	}
}

// String returns a human-readable platform name
func (p Platform) String() string {
	switch p {
	case PlatformMacOS:
		return "macOS"
	case PlatformLinux:
		return "Linux"
	case PlatformWSL:
		return "WSL"
	default:
		return "Unknown"
	}
}
