package audio

import (
	"context"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned when no mute controller exists for the current platform.
var ErrUnsupported = errors.New("audio session control is not supported on this platform")

// Controller sets the mute flag of a process's audio session.
type Controller interface {
	// SetMute applies mute to every audio session owned by process. ok is false,
	// with a nil error, when the process currently has no audio session.
	SetMute(ctx context.Context, process string, mute bool) (ok bool, err error)

	// Name identifies the backend ("pulse", "wasapi", ...)
	Name() string

	// Close releases the connection to the audio subsystem
	Close() error
}
