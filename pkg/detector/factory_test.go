package detector

import (
	"runtime"
	"testing"
)

func TestNewResolver(t *testing.T) {
	resolver, err := NewResolver()
	if err != nil {
		t.Logf("NewResolver() returned error (may be expected): %v", err)
		return
	}

	if resolver == nil {
		t.Fatal("NewResolver() returned nil resolver without error")
	}
	t.Logf("Resolver: %s", resolver.Name())

	if err := resolver.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNewController(t *testing.T) {
	controller, err := NewController()
	if err != nil {
		t.Logf("NewController() returned error (may be expected): %v", err)
		return
	}
	defer controller.Close()

	if controller.Name() == "" {
		t.Error("controller has no name")
	}
}

func TestTargetProcess(t *testing.T) {
	want := "spotify"
	if runtime.GOOS == "windows" {
		want = "Spotify.exe"
	}
	if got := TargetProcess(); got != want {
		t.Errorf("TargetProcess() = %s, want %s", got, want)
	}
}

func TestDetectDisplayServer(t *testing.T) {
	if runtime.GOOS == "windows" {
		if got := DetectDisplayServer(); got != "windows" {
			t.Errorf("DetectDisplayServer() = %s, want windows", got)
		}
		return
	}

	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{
			name:           "Wayland session",
			sessionType:    "wayland",
			waylandDisplay: "wayland-0",
			expected:       "wayland",
		},
		{
			name:        "X11 session",
			sessionType: "x11",
			x11Display:  ":0",
			expected:    "x11",
		},
		{
			name:     "Unknown session",
			expected: "unknown",
		},
		{
			name:           "Wayland display set",
			waylandDisplay: "wayland-1",
			expected:       "wayland",
		},
		{
			name:       "X11 display set",
			x11Display: ":1",
			expected:   "x11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			if result := DetectDisplayServer(); result != tt.expected {
				t.Errorf("DetectDisplayServer() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestNewResolverWithoutDisplay(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("display environment only matters on linux")
	}
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")
	t.Setenv("SWAYSOCK", "")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")

	resolver, err := NewResolver()
	if err != nil {
		t.Logf("NewResolver() correctly returned error without a display: %v", err)
		return
	}
	t.Logf("NewResolver() succeeded without display env vars: %s", resolver.Name())
	resolver.Close()
}
