//go:build windows

package detector

import (
	"github.com/admuter/admuter/pkg/audio"
	"github.com/admuter/admuter/pkg/integrations/win32"
	"github.com/admuter/admuter/pkg/window"
)

const (
	targetProcess         = "Spotify.exe"
	platformDisplayServer = "windows"
)

// NewResolver returns the EnumWindows title resolver.
func NewResolver() (window.Resolver, error) {
	return win32.NewWindowResolver(), nil
}

// NewController returns the WASAPI session controller.
func NewController() (audio.Controller, error) {
	return win32.NewSessionController(), nil
}
