//go:build windows

package win32

import "syscall"

var (
	user32 = syscall.NewLazyDLL("user32.dll")

	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
)
