//go:build linux

package sandbox

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// rawExecve calls execve directly against the raw pointer arrays built by
// execArgs (C3), rather than going through golang.org/x/sys/unix.Exec's
// convenience wrapper, so the ownership contract in spec.md §3 — argv/envp
// must remain live and stable until control transfers — is exercised
// exactly as specified rather than hidden behind a helper that rebuilds
// its own arrays. On success this never returns.
func rawExecve(ea *execArgs) error {
	_, _, errno := unix.Syscall(
		unix.SYS_EXECVE,
		uintptr(unsafe.Pointer(ea.pathname)),
		uintptr(unsafe.Pointer(ea.argvPtr())),
		uintptr(unsafe.Pointer(ea.envpPtr())),
	)
	if errno != 0 {
		return errno
	}

	return nil
}
