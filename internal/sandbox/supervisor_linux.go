//go:build linux

package sandbox

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/algoux/river/internal/logger"
	"github.com/algoux/river/internal/revert"
)

// runSupervisor implements Phase A and Phase C of spec.md §4.2. Phase A
// (namespace entry) is performed by os/exec's Cloneflags support rather
// than a hand-rolled clone+stack mmap — see reexec_linux.go for why Go
// cannot use libc's clone(fn, stack, flags, arg) child-entry-callback
// interface directly. Phase C (supervision) runs in this process.
func runSupervisor(ctx context.Context, opts Options) (Status, error) {
	req := childRequest{
		Command:            opts.Command,
		Env:                nil,
		CPUTimeLimitMs:     opts.CPUTimeLimitMs,
		MemoryLimitKiB:     opts.MemoryLimitKiB,
		FileSizeLimitBytes: opts.FileSizeLimitBytes,
		Input:              opts.Input,
		Output:             opts.Output,
		Error:              opts.Error,
		Workdir:            opts.Workdir,
		SeccompEnabled:     true,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Status{}, serializationErr("encode guest request", err)
	}

	limiter := newPidsLimiter(opts.PidsLimit, opts.CgroupVersion)

	rv := revert.New()
	defer rv.Fail()
	rv.Add(limiter.release)

	cmd := exec.Command(selfExePath(), reexecNSRootArg)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Status{}, ioErr("open guest request pipe", err)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: cloneFlags(opts.NetworkEnabled),
		Pdeathsig:  syscall.SIGKILL,
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Status{}, syscallErrFromOS("supervisor_linux.go", 62, "clone", err)
	}

	limiter.attach(cmd.Process.Pid)

	// The namespace root reads this request before it starts the guest
	// candidate, so sending it only after attach puts the pids cap in
	// place before the guest's first fork.
	_, _ = stdin.Write(payload)
	_ = stdin.Close()

	killCtx, cancelKill := context.WithCancel(ctx)
	defer cancelKill()

	timedOut := make(chan struct{})
	waitDone := make(chan struct{})
	go deadlineWatcher(killCtx, waitDone, timedOut, opts.TimeLimitMs, cmd.Process.Pid)

	var ws unix.WaitStatus
	var ru unix.Rusage
	waitPid, waitErr := unix.Wait4(cmd.Process.Pid, &ws, 0, &ru)
	close(waitDone)

	wallTimeMs := time.Since(start).Milliseconds()

	if waitErr != nil {
		return Status{}, syscallErrFromOS("supervisor_linux.go", 83, "wait4", waitErr)
	}
	_ = waitPid

	status := Status{
		WallTimeMs:    wallTimeMs,
		CPUTimeMs:     rusageCPUTimeMs(ru),
		PeakMemoryKiB: int64(ru.Maxrss), // ru_maxrss is reported in KiB on Linux; used as-is.
		RawStatus:     int(ws),
	}

	if ws.Exited() {
		status.ExitCode = ws.ExitStatus()
	} else if ws.Signaled() {
		status.TerminationSignal = int(ws.Signal())
	} else if ws.Stopped() {
		status.TerminationSignal = int(ws.StopSignal())
	}

	select {
	case <-timedOut:
		logger.Debug("guest killed by wall-clock deadline", logger.Fields{"pid": cmd.Process.Pid})
	default:
	}

	rv.Success()
	limiter.release()

	return status, nil
}

// deadlineWatcher is the cancellable helper thread required by spec.md §5:
// it must be cancellable so a normal exit does not race with a late kill
// signal. Grounded on FUZOJ's engine_linux.go wall-timer goroutine, which
// races the same three cases: external cancellation, deadline, and normal
// completion.
func deadlineWatcher(ctx context.Context, done chan struct{}, timedOut chan struct{}, timeLimitMs uint32, pid int) {
	var wallTimer <-chan time.Time
	if timeLimitMs > 0 {
		wallTimer = time.After(time.Duration(timeLimitMs) * time.Millisecond)
	}

	select {
	case <-ctx.Done():
		_ = syscall.Kill(pid, syscall.SIGKILL)
	case <-wallTimer:
		close(timedOut)
		_ = syscall.Kill(pid, syscall.SIGKILL)
	case <-done:
	}
}

// cloneFlags assembles the namespace set from spec.md §4.2 Phase A: UTS,
// mount, IPC, cgroup, and PID namespaces unconditionally; network
// namespace iff networking is disabled (so network_enabled=true shares the
// host's network namespace instead of adding CLONE_NEWNET).
func cloneFlags(networkEnabled bool) uintptr {
	flags := uintptr(unix.CLONE_NEWUTS | unix.CLONE_NEWNS | unix.CLONE_NEWIPC | unix.CLONE_NEWCGROUP | unix.CLONE_NEWPID)
	if !networkEnabled {
		flags |= unix.CLONE_NEWNET
	}
	return flags
}

// rusageCPUTimeMs computes utime+stime in milliseconds per spec.md §4.2
// Phase C.
func rusageCPUTimeMs(ru unix.Rusage) int64 {
	return (int64(ru.Utime.Sec)+int64(ru.Stime.Sec))*1000 +
		(int64(ru.Utime.Usec)+int64(ru.Stime.Usec))/1000
}

func syscallErrFromOS(file string, line int, name string, err error) error {
	errno := 0
	var errnoErr syscall.Errno
	if e, ok := err.(syscall.Errno); ok {
		errnoErr = e
		errno = int(errnoErr)
	}
	return syscallErr(file, line, name, errno)
}
