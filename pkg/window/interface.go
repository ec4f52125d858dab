package window

import (
	"context"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned when no title resolver exists for the current platform.
var ErrUnsupported = errors.New("window title resolution is not supported on this platform")

// Resolver looks up the visible window title owned by a process.
type Resolver interface {
	// ResolveTitle returns the trimmed title of the first visible, titled window
	// owned by process. ok is false when no such window exists or the process
	// cannot be inspected; err is reserved for unexpected faults.
	ResolveTitle(ctx context.Context, process string) (title string, ok bool, err error)

	// Name identifies the backend ("x11", "wayland", "win32", ...)
	Name() string

	// Close cleans up any resources used by the resolver
	Close() error
}
