//go:build windows

package sandbox

// MaybeReexec is a no-op on Windows: the Windows supervisor (C5) never
// re-execs itself, since CreateProcess's CREATE_SUSPENDED flag already
// gives it the "apply limits before the guest's first instruction"
// ordering that the POSIX supervisor needs a re-exec helper to achieve
// (see reexec_linux.go).
func MaybeReexec() {}
