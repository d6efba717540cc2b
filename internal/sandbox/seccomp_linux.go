//go:build linux

package sandbox

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// allowedSyscalls is the allowlist policy: any syscall number not in this
// table is killed outright (SECCOMP_RET_KILL_PROCESS), not merely denied
// with EPERM, so sandboxed misbehavior is never silently downgraded to a
// retryable error the guest could work around (spec.md §4.5). The table
// shape — syscall name to number — mirrors the vendored seccomp default
// profiles in the corpus (containerd's and k3s's seccomp_default.go),
// though those build an OCI JSON profile for a separate seccomp-loading
// process; here the table feeds a hand-assembled classic-BPF program
// loaded directly into this process (see DESIGN.md's standard-library
// justification for not vendoring libseccomp-golang).
var allowedSyscalls = []int{
	// execve/execveat: guestinit_linux.go installs this filter immediately
	// before its own rawExecve (step 6, then step 7) and clone/clone3 for
	// any dynamically-linked guest that starts threads (glibc pthreads,
	// a Go or JVM runtime). Omitting either kills the guest's very first
	// instruction, never the guest's own fault.
	unix.SYS_EXECVE,
	unix.SYS_EXECVEAT,
	unix.SYS_CLONE,
	unix.SYS_CLONE3,
	unix.SYS_READ,
	unix.SYS_WRITE,
	unix.SYS_OPEN,
	unix.SYS_OPENAT,
	unix.SYS_CLOSE,
	unix.SYS_FSTAT,
	unix.SYS_NEWFSTATAT,
	unix.SYS_STATX,
	unix.SYS_LSEEK,
	unix.SYS_MMAP,
	unix.SYS_MPROTECT,
	unix.SYS_MUNMAP,
	unix.SYS_BRK,
	unix.SYS_RT_SIGACTION,
	unix.SYS_RT_SIGPROCMASK,
	unix.SYS_RT_SIGRETURN,
	unix.SYS_IOCTL,
	unix.SYS_FCNTL,
	unix.SYS_PREAD64,
	unix.SYS_PWRITE64,
	unix.SYS_READV,
	unix.SYS_WRITEV,
	unix.SYS_ACCESS,
	unix.SYS_PIPE,
	unix.SYS_DUP,
	unix.SYS_DUP2,
	unix.SYS_POLL,
	unix.SYS_SELECT,
	unix.SYS_NANOSLEEP,
	unix.SYS_WAIT4,
	unix.SYS_GETPID,
	unix.SYS_GETUID,
	unix.SYS_GETGID,
	unix.SYS_GETEUID,
	unix.SYS_GETEGID,
	unix.SYS_EXIT,
	unix.SYS_EXIT_GROUP,
	unix.SYS_CLOCK_GETTIME,
	unix.SYS_GETTIMEOFDAY,
	unix.SYS_FUTEX,
	unix.SYS_SET_TID_ADDRESS,
	unix.SYS_SET_ROBUST_LIST,
	unix.SYS_ARCH_PRCTL,
	unix.SYS_PRCTL,
	unix.SYS_GETRANDOM,
	unix.SYS_SIGALTSTACK,
	unix.SYS_STAT,
	unix.SYS_LSTAT,
	unix.SYS_GETDENTS64,
	unix.SYS_SCHED_YIELD,
	unix.SYS_SCHED_GETAFFINITY,
	unix.SYS_MADVISE,
	unix.SYS_UNAME,
	unix.SYS_TGKILL,
	unix.SYS_RSEQ,
	unix.SYS_MEMBARRIER,
}

// Classic-BPF opcodes needed for the tiny syscall-number comparison
// program below. golang.org/x/sys/unix defines the field layout
// (SockFilter/SockFprog) but not these opcode constants, which come from
// linux/filter.h and linux/seccomp.h.
const (
	bpfLd  = 0x00
	bpfW   = 0x00
	bpfAbs = 0x20
	bpfJmp = 0x05
	bpfJeq = 0x10
	bpfK   = 0x00
	bpfRet = 0x06

	seccompRetKillProcess = 0x80000000
	seccompRetAllow       = 0x7fff0000

	// offsetof(struct seccomp_data, nr) on every architecture this module
	// targets: the syscall number is the first 4-byte field.
	seccompDataNrOffset = 0
)

func bpfStmt(code, k uint16) unix.SockFilter {
	return unix.SockFilter{Code: code, Jt: 0, Jf: 0, K: uint32(k)}
}

func bpfJump(code uint16, k uint32, jt, jf uint8) unix.SockFilter {
	return unix.SockFilter{Code: code, Jt: jt, Jf: jf, K: k}
}

// buildSeccompProgram assembles: load syscall nr, compare against each
// allowed number (jump to an ALLOW return on match), fall through to
// KILL_PROCESS.
func buildSeccompProgram() []unix.SockFilter {
	prog := []unix.SockFilter{
		bpfJump(bpfLd|bpfW|bpfAbs, seccompDataNrOffset, 0, 0),
	}

	for _, nr := range allowedSyscalls {
		// A jump-true offset past the rest of the comparisons would need
		// per-instruction distance accounting; compare-and-return is
		// simpler to keep correct by construction: on match, land exactly
		// one instruction ahead (the ALLOW return).
		prog = append(prog, bpfJump(bpfJmp|bpfJeq|bpfK, uint32(nr), 0, 1))
		prog = append(prog, bpfStmt(bpfRet|bpfK, seccompRetAllow))
	}

	prog = append(prog, bpfStmt(bpfRet|bpfK, seccompRetKillProcess))

	return prog
}

// installSeccompFilter loads the allowlist policy into the calling
// thread (no TSYNC flag), which passes it on to the image that thread
// execve's. It must be preceded by the "no new privileges" gate so an
// unprivileged process may install a filter that also restricts its
// children (spec.md §4.5).
func installSeccompFilter() error {
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return err
	}

	prog := buildSeccompProgram()
	fprog := unix.SockFprog{
		Len:    uint16(len(prog)),
		Filter: &prog[0],
	}

	_, _, errno := unix.Syscall(
		unix.SYS_SECCOMP,
		unix.SECCOMP_SET_MODE_FILTER,
		0,
		uintptr(unsafe.Pointer(&fprog)),
	)
	if errno != 0 {
		return errno
	}

	return nil
}
