//go:build !windows

package daemon

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Daemonize re-executes the current binary with the same arguments in a new
// session, detached from the terminal, and returns the child PID.
func Daemonize() (int, error) {
	env := append(os.Environ(), ChildEnv+"=1")

	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil}, // stdin, stdout, stderr to /dev/null
		Sys: &syscall.SysProcAttr{
			Setsid: true, // Create new session
		},
	}

	proc, err := os.StartProcess(exe, os.Args, procAttr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to start daemon process")
	}
	pid := proc.Pid
	_ = proc.Release()
	return pid, nil
}
