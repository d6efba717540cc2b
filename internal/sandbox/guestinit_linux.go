//go:build linux

package sandbox

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// runGuestStage is Phase B' of spec.md §4.2: the guest candidate. It
// applies every limit and redirection, in the exact order the spec
// prescribes, then execve's the target. Any failure here is fatal to this
// process — there is no stack frame to propagate a Result through, since
// (per spec.md §9) error return through a fork/re-exec child is
// impossible. The process aborts with a diagnostic on its stderr (the
// redirected one once step 4 has run, the inherited one before that); the
// supervisor observes the resulting abnormal termination and reports it
// structurally.
func runGuestStage() {
	// The seccomp filter applies to one OS thread; keep this goroutine on
	// that thread so the filtered thread is the one that calls execve.
	runtime.LockOSThread()

	req, err := readChildRequest()
	if err != nil {
		fatalf("guest: decode request: %v", err)
	}

	// 1. RLIMIT_CPU, rounded up per spec.md §4.2 step 1: ceil(ms/1000),
	// plus one extra second when the remainder exceeds 800ms so a program
	// that finishes just under the wire is not killed for arriving late
	// to the final whole second.
	if req.CPUTimeLimitMs > 0 {
		secs := uint64(req.CPUTimeLimitMs) / 1000
		remainder := uint64(req.CPUTimeLimitMs) % 1000
		if remainder > 0 {
			secs++
		}
		if remainder > 800 {
			secs++
		}
		if err := unix.Setrlimit(unix.RLIMIT_CPU, &unix.Rlimit{Cur: secs, Max: secs}); err != nil {
			fatalf("guest: setrlimit RLIMIT_CPU: %v", err)
		}
	}

	// 2. RLIMIT_AS and RLIMIT_STACK, each 2x the memory limit: the kernel
	// accounts address space, which must exceed resident working set. This
	// factor is intentionally left as originally specified (see DESIGN.md).
	if req.MemoryLimitKiB > 0 {
		bytesLimit := uint64(req.MemoryLimitKiB) * 1024 * 2
		lim := &unix.Rlimit{Cur: bytesLimit, Max: bytesLimit}
		if err := unix.Setrlimit(unix.RLIMIT_AS, lim); err != nil {
			fatalf("guest: setrlimit RLIMIT_AS: %v", err)
		}
		if err := unix.Setrlimit(unix.RLIMIT_STACK, lim); err != nil {
			fatalf("guest: setrlimit RLIMIT_STACK: %v", err)
		}
	}

	// 3. RLIMIT_FSIZE.
	if req.FileSizeLimitBytes > 0 {
		lim := &unix.Rlimit{Cur: uint64(req.FileSizeLimitBytes), Max: uint64(req.FileSizeLimitBytes)}
		if err := unix.Setrlimit(unix.RLIMIT_FSIZE, lim); err != nil {
			fatalf("guest: setrlimit RLIMIT_FSIZE: %v", err)
		}
	}

	// 4. Redirections. Absent streams inherit.
	if req.Input != "" {
		if err := redirectFD(req.Input, unix.Stdin, os.O_RDONLY, 0); err != nil {
			fatalf("guest: redirect stdin: %v", err)
		}
	}
	if req.Output != "" {
		if err := redirectFD(req.Output, unix.Stdout, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644); err != nil {
			fatalf("guest: redirect stdout: %v", err)
		}
	}
	if req.Error != "" {
		if err := redirectFD(req.Error, unix.Stderr, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644); err != nil {
			fatalf("guest: redirect stderr: %v", err)
		}
	}

	// 5. chdir to workdir.
	if req.Workdir != "" {
		if err := unix.Chdir(req.Workdir); err != nil {
			fatalf("guest: chdir %s: %v", req.Workdir, err)
		}
	}

	// 6. Seccomp, installed immediately before exec.
	if req.SeccompEnabled {
		if err := installSeccompFilter(); err != nil {
			fatalf("guest: install seccomp filter: %v", err)
		}
	}

	// 7. execve. Control never returns on success.
	ea, err := buildExecArgs(req.Command, req.Env)
	if err != nil {
		fatalf("guest: build exec args: %v", err)
	}

	if err := rawExecve(ea); err != nil {
		ea.release()
		fatalf("guest: execve %s: %v", req.Command[0], err)
	}
}

// redirectFD opens path with the given flags/mode and dup2s it onto fd,
// closing the original descriptor returned by Open.
func redirectFD(path string, fd int, flags int, mode uint32) error {
	f, err := unix.Open(path, flags, mode)
	if err != nil {
		return err
	}
	defer unix.Close(f)

	return unix.Dup2(f, fd)
}
