//go:build windows

package win32

import (
	"context"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/admuter/admuter/pkg/integrations/process"
)

// Windows callbacks are never freed, so a single one is shared by all scans.
var (
	enumMu       sync.Mutex
	enumTarget   *enumState
	enumCallback = syscall.NewCallback(enumWindowsProc)
)

type enumState struct {
	ctx     context.Context
	process string
	names   *process.Cache
	title   string
	found   bool
}

func enumWindowsProc(hwnd windows.HWND, _ uintptr) uintptr {
	s := enumTarget
	if s == nil || !windows.IsWindowVisible(hwnd) {
		return 1
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid == 0 {
		return 1
	}
	if !s.names.Matches(s.ctx, int32(pid), s.process) {
		return 1
	}

	title := strings.TrimSpace(windowText(hwnd))
	if title == "" {
		return 1
	}
	s.title = title
	s.found = true
	return 0
}

func windowText(hwnd windows.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	copied, _, _ := procGetWindowTextW.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if copied == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:copied])
}

// WindowResolver reads top-level window titles through EnumWindows.
type WindowResolver struct{}

// NewWindowResolver creates a WindowResolver
func NewWindowResolver() *WindowResolver {
	return &WindowResolver{}
}

// Name returns "win32"
func (r *WindowResolver) Name() string {
	return "win32"
}

// ResolveTitle returns the title of the first visible window owned by process.
func (r *WindowResolver) ResolveTitle(ctx context.Context, name string) (string, bool, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	state := &enumState{ctx: ctx, process: name, names: process.NewCache()}
	enumTarget = state
	err := windows.EnumWindows(enumCallback, unsafe.Pointer(nil))
	enumTarget = nil

	// EnumWindows reports failure when the callback stops the walk early.
	if state.found {
		return state.title, true, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "enumerate windows")
	}
	return "", false, nil
}

// Close is a no-op
func (r *WindowResolver) Close() error {
	return nil
}
