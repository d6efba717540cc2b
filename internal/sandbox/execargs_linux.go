//go:build linux

package sandbox

import "unsafe"

// execArgs owns the null-terminated C-string arrays execve needs:
// pathname, argv[]={program,args...,NULL}, envp[]={NULL} (or a
// caller-supplied environment). Grounded on original_source/src/sys/
// linux/utils.rs's ExecArgs: the builder owns every allocation until the
// exec call site disowns it by actually calling execve (at which point
// control never returns, so the "leak" is irrelevant), and frees every
// allocation exactly once on any failure before exec.
//
// Go's garbage collector means there is no real double-free risk the way
// there is in the Rust original, but the *ownership discipline* — pin
// until exec, release once on early return — is preserved deliberately:
// it is what makes the guest-candidate code safe to read phase by phase,
// matching spec.md §3's ownership invariant for native buffers.
type execArgs struct {
	pathname *byte
	argv     []*byte
	envp     []*byte

	// buffers keeps every backing byte slice referenced until release, so
	// the pointers in pathname/argv/envp stay valid.
	buffers [][]byte
	armed   bool
}

// buildExecArgs converts a (program, args...) vector and an optional
// environment into an execArgs ready for execve. env may be nil, meaning
// "empty environment" (matching the original's minimal envp={NULL}).
func buildExecArgs(command []string, env []string) (*execArgs, error) {
	if len(command) == 0 {
		return nil, configErr("exec args: command must be non-empty")
	}

	ea := &execArgs{armed: true}

	pathnameBuf := cString(command[0])
	ea.buffers = append(ea.buffers, pathnameBuf)
	ea.pathname = &pathnameBuf[0]

	for _, arg := range command {
		buf := cString(arg)
		ea.buffers = append(ea.buffers, buf)
		ea.argv = append(ea.argv, &buf[0])
	}
	ea.argv = append(ea.argv, nil)

	for _, e := range env {
		buf := cString(e)
		ea.buffers = append(ea.buffers, buf)
		ea.envp = append(ea.envp, &buf[0])
	}
	ea.envp = append(ea.envp, nil)

	return ea, nil
}

// cString returns s as a NUL-terminated byte slice.
func cString(s string) []byte {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return buf
}

// argvPtr returns the address of argv[0], suitable for a raw execve call.
func (e *execArgs) argvPtr() **byte {
	if len(e.argv) == 0 {
		return nil
	}
	return (**byte)(unsafe.Pointer(&e.argv[0]))
}

// envpPtr returns the address of envp[0], suitable for a raw execve call.
func (e *execArgs) envpPtr() **byte {
	if len(e.envp) == 0 {
		return nil
	}
	return (**byte)(unsafe.Pointer(&e.envp[0]))
}

// release disowns every buffer. Safe to call multiple times. Called on
// every path before exec that is not the exec call itself: on the
// successful exec path control never returns, so release is never
// reached there (mirroring the Rust original leaking past exec).
func (e *execArgs) release() {
	if !e.armed {
		return
	}
	e.buffers = nil
	e.argv = nil
	e.envp = nil
	e.pathname = nil
	e.armed = false
}
