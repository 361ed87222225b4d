//go:build windows

package cli

import "syscall"

// daemonSysProcAttr returns the SysProcAttr for daemonizing on Windows.
func daemonSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		// Detach from the parent console
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
