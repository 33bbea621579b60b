// Package daemon implements the -d detach-to-background flag shared by
// both brokers (spec.md §4.8, §6).
package daemon

import (
	"fmt"
	"os"
	"os/exec"
)

// detachEnv marks a re-executed child as already detached, so Daemonize
// is a no-op the second time around.
const detachEnv = "LAMB_DAEMONIZED=1"

// Daemonize re-execs the current binary with the same arguments and a
// sentinel environment variable, redirecting the child's standard
// streams to /dev/null and returning its PID to the parent, which exits
// immediately after. If the process is already a detached child (the
// sentinel is set), Daemonize is a no-op.
func Daemonize() (child bool, pid int, err error) {
	if os.Getenv("LAMB_DAEMONIZED") == "1" {
		return false, 0, nil
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return false, 0, fmt.Errorf("daemon: open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	exe, err := os.Executable()
	if err != nil {
		return false, 0, fmt.Errorf("daemon: resolve executable path: %w", err)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), detachEnv)
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return false, 0, fmt.Errorf("daemon: start detached child: %w", err)
	}

	return true, cmd.Process.Pid, nil
}
