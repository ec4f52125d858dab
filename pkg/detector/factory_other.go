//go:build !linux && !windows

package detector

import (
	"github.com/admuter/admuter/pkg/audio"
	"github.com/admuter/admuter/pkg/window"
)

const (
	targetProcess         = "spotify"
	platformDisplayServer = ""
)

// NewResolver is not supported on this platform.
func NewResolver() (window.Resolver, error) {
	return nil, window.ErrUnsupported
}

// NewController is not supported on this platform.
func NewController() (audio.Controller, error) {
	return nil, audio.ErrUnsupported
}
