package detector

import (
	"os"
)

// TargetProcess is the executable whose window title and audio are managed.
func TargetProcess() string {
	return targetProcess
}

// DetectDisplayServer reports the session type: "wayland", "x11", "windows"
// or "unknown".
func DetectDisplayServer() string {
	if platformDisplayServer != "" {
		return platformDisplayServer
	}

	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
