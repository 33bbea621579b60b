//go:build !windows

package daemon

import "syscall"

// detachAttr gives the child its own session so it survives the
// parent's exit and isn't killed by a terminal hangup.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
