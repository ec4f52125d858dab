//go:build linux

package detector

import (
	"github.com/admuter/admuter/pkg/audio"
	"github.com/admuter/admuter/pkg/integrations/hybrid"
	"github.com/admuter/admuter/pkg/integrations/pulse"
	"github.com/admuter/admuter/pkg/integrations/wayland"
	"github.com/admuter/admuter/pkg/integrations/x11"
	"github.com/admuter/admuter/pkg/window"
)

const (
	targetProcess         = "spotify"
	platformDisplayServer = ""
)

// NewResolver chains the title resolvers usable in this session. On Wayland
// the compositor is asked first, since XWayland only exposes X11 clients.
func NewResolver() (window.Resolver, error) {
	x := x11.NewDetector()
	w := wayland.NewDetector()

	var chain []window.Resolver
	if DetectDisplayServer() == "wayland" {
		if w.IsAvailable() {
			chain = append(chain, w)
		}
		if x.IsAvailable() {
			chain = append(chain, x)
		}
	} else {
		if x.IsAvailable() {
			chain = append(chain, x)
		}
		if w.IsAvailable() {
			chain = append(chain, w)
		}
	}
	if len(chain) == 0 {
		return nil, window.ErrUnsupported
	}
	return hybrid.NewDetector(chain...)
}

// NewController returns the PulseAudio sink-input controller.
func NewController() (audio.Controller, error) {
	return pulse.NewController(), nil
}
