//go:build windows

package daemon

import "github.com/pkg/errors"

// Daemonize is not available on Windows; install a service instead.
func Daemonize() (int, error) {
	return 0, errors.New("background mode is not supported on Windows, use 'admuter service install'")
}
