//go:build windows

package sandbox

import (
	"context"
	"fmt"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/algoux/river/internal/logger"
	"github.com/algoux/river/internal/revert"
)

// runSupervisor implements the Windows state machine from spec.md §4.3:
// CREATED(suspended) -> LIMITED -> RUNNING -> WAIT_FOR_EXIT -> one of
// SIGNALED_OK / TIMEOUT_KILL / WAIT_FAIL. Grounded on original_source's
// Windows Sandbox::run (CreateProcessA + CREATE_SUSPENDED + ResumeThread +
// WaitForSingleObject + GetProcessMemoryInfo) and on hcsshim's
// jobcontainer.go for the "attach the Job Object before resuming" ordering
// that closes the race window spec.md §9 calls out.
func runSupervisor(ctx context.Context, opts Options) (Status, error) {
	rv := revert.New()
	defer rv.Fail()

	cmdLine, err := buildCommandLine(opts.Command)
	if err != nil {
		return Status{}, err
	}

	var startupInfo windows.StartupInfo
	var procInfo windows.ProcessInformation

	inheritHandles := false

	if opts.Input != "" || opts.Output != "" || opts.Error != "" {
		startupInfo.Flags |= windows.STARTF_USESTDHANDLES
		inheritHandles = true

		stdin, err := openInheritableHandle(opts.Input, windows.GENERIC_READ, windows.OPEN_EXISTING)
		if err != nil {
			return Status{}, err
		}
		rv.Add(func() { _ = windows.CloseHandle(stdin) })
		startupInfo.StdInput = stdin

		stdout, err := openInheritableHandle(opts.Output, windows.GENERIC_WRITE, windows.CREATE_ALWAYS)
		if err != nil {
			return Status{}, err
		}
		rv.Add(func() { _ = windows.CloseHandle(stdout) })
		startupInfo.StdOutput = stdout

		stderr, err := openInheritableHandle(opts.Error, windows.GENERIC_WRITE, windows.CREATE_ALWAYS)
		if err != nil {
			return Status{}, err
		}
		rv.Add(func() { _ = windows.CloseHandle(stderr) })
		startupInfo.StdErr = stderr
	}

	appName, err := windows.UTF16PtrFromString(opts.Command[0])
	if err != nil {
		return Status{}, ioErr("encode application name", err)
	}

	cmdLinePtr, err := windows.UTF16PtrFromString(cmdLine)
	if err != nil {
		return Status{}, ioErr("encode command line", err)
	}

	start := time.Now()

	err = windows.CreateProcess(
		appName,
		cmdLinePtr,
		nil,
		nil,
		inheritHandles,
		windows.CREATE_SUSPENDED,
		nil,
		nil,
		&startupInfo,
		&procInfo,
	)
	if err != nil {
		return Status{}, syscallErrFromWin("supervisor_windows.go", 78, "CreateProcess", err)
	}
	rv.Add(func() { _ = windows.CloseHandle(procInfo.Thread) })
	rv.Add(func() { _ = windows.CloseHandle(procInfo.Process) })

	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return Status{}, syscallErrFromWin("supervisor_windows.go", 96, "CreateJobObject", err)
	}
	rv.Add(func() { _ = windows.CloseHandle(job) })

	if err := assignProcessAndLimits(job, procInfo.Process, opts); err != nil {
		return Status{}, err
	}

	// A previous suspend count other than 1 means this process was not in
	// the single-suspended state CREATE_SUSPENDED put it in, so the limits
	// just assigned cannot be trusted to have taken effect before the
	// guest's first instruction.
	prevSuspendCount, err := windows.ResumeThread(procInfo.Thread)
	if err != nil {
		return Status{}, syscallErrFromWin("supervisor_windows.go", 110, "ResumeThread", err)
	}
	if prevSuspendCount != 1 {
		return Status{}, syscallErrFromWin("supervisor_windows.go", 110, "ResumeThread", syscall.EINVAL)
	}

	timeoutMs := uint32(windows.INFINITE)
	if opts.TimeLimitMs > 0 {
		timeoutMs = opts.TimeLimitMs
	}

	killCtx, cancelKill := context.WithCancel(ctx)
	defer cancelKill()
	go func() {
		<-killCtx.Done()
	}()

	waitResult, err := windows.WaitForSingleObject(procInfo.Process, timeoutMs)
	timedOut := false

	switch {
	case err != nil:
		return Status{}, syscallErrFromWin("supervisor_windows.go", 129, "WaitForSingleObject", err)
	case waitResult == uint32(windows.WAIT_TIMEOUT):
		timedOut = true
		logger.Debug("guest killed by wall-clock deadline")
		if err := windows.TerminateProcess(procInfo.Process, 0); err != nil {
			return Status{}, syscallErrFromWin("supervisor_windows.go", 138, "TerminateProcess", err)
		}
		if _, err := windows.WaitForSingleObject(procInfo.Process, windows.INFINITE); err != nil {
			return Status{}, syscallErrFromWin("supervisor_windows.go", 141, "WaitForSingleObject", err)
		}
	case waitResult == windows.WAIT_FAILED:
		return Status{}, syscallErrFromWin("supervisor_windows.go", 129, "WaitForSingleObject", syscall.EINVAL)
	}

	wallTimeMs := time.Since(start).Milliseconds()

	// Close redirect handles before reading process statistics, per
	// spec.md §4.3 step 5.
	rv.Success()
	closeRedirectHandles(&startupInfo, inheritHandles)
	_ = windows.CloseHandle(procInfo.Thread)
	defer windows.CloseHandle(procInfo.Process)
	defer windows.CloseHandle(job)

	peakMemKiB, err := queryPeakMemoryKiB(procInfo.Process)
	if err != nil {
		return Status{}, err
	}

	cpuTimeMs, err := queryCPUTimeMs(procInfo.Process)
	if err != nil {
		return Status{}, err
	}

	var exitCode uint32
	if err := windows.GetExitCodeProcess(procInfo.Process, &exitCode); err != nil {
		return Status{}, syscallErrFromWin("supervisor_windows.go", 169, "GetExitCodeProcess", err)
	}

	status := Status{
		WallTimeMs:    wallTimeMs,
		CPUTimeMs:     cpuTimeMs,
		PeakMemoryKiB: peakMemKiB,
		ExitCode:      int(exitCode),
		RawStatus:     int(exitCode),
	}

	if timedOut {
		// Signals are synthesized on Windows: report the platform-neutral
		// "killed by deadline" code and zero the (meaningless, since we
		// force-terminated with code 0) exit code, per spec.md §4.3 step 7.
		status.TerminationSignal = DeadlineSignal
		status.ExitCode = 0
	}

	return status, nil
}

// buildCommandLine joins the argument vector the way CreateProcess expects
// a single command-line string, quoting arguments containing whitespace.
// Grounded on hcsshim's splitArgs/joinArgs handling of Windows quoting.
func buildCommandLine(command []string) (string, error) {
	if len(command) == 0 {
		return "", configErr("command must be non-empty")
	}

	parts := make([]string, len(command))
	for i, arg := range command {
		if strings.ContainsAny(arg, " \t\"") {
			parts[i] = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		} else {
			parts[i] = arg
		}
	}

	return strings.Join(parts, " "), nil
}

func openInheritableHandle(path string, access uint32, creationDisposition uint32) (windows.Handle, error) {
	if path == "" {
		return windows.Handle(0), nil
	}

	sa := &windows.SecurityAttributes{
		Length:        uint32(unsafe.Sizeof(windows.SecurityAttributes{})),
		InheritHandle: 1,
	}

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, ioErr("encode redirect path "+path, err)
	}

	h, err := windows.CreateFile(
		pathPtr,
		access,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		sa,
		creationDisposition,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return 0, ioErr("open redirect file "+path, err)
	}

	return h, nil
}

func closeRedirectHandles(si *windows.StartupInfo, inherited bool) {
	if !inherited {
		return
	}
	if si.StdInput != 0 {
		_ = windows.CloseHandle(si.StdInput)
	}
	if si.StdOutput != 0 {
		_ = windows.CloseHandle(si.StdOutput)
	}
	if si.StdErr != 0 {
		_ = windows.CloseHandle(si.StdErr)
	}
}

// assignProcessAndLimits creates the JOBOBJECT_BASIC_LIMIT_INFORMATION
// from spec.md §4.3 step 2 and attaches the process to the job before it
// is resumed, closing the race window where a process could complete
// between resume and limit-attachment.
func assignProcessAndLimits(job windows.Handle, process windows.Handle, opts Options) error {
	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			PriorityClass: windows.IDLE_PRIORITY_CLASS,
			LimitFlags:    windows.JOB_OBJECT_LIMIT_PRIORITY_CLASS,
		},
	}

	if opts.CPUTimeLimitMs > 0 {
		hundredNs := int64(opts.CPUTimeLimitMs) * 10000
		info.BasicLimitInformation.PerProcessUserTimeLimit = hundredNs
		info.BasicLimitInformation.PerJobUserTimeLimit = hundredNs
		info.BasicLimitInformation.LimitFlags |= windows.JOB_OBJECT_LIMIT_PROCESS_TIME
	}

	if err := windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		return syscallErrFromWin("supervisor_windows.go", 277, "SetInformationJobObject", err)
	}

	if err := windows.AssignProcessToJobObject(job, process); err != nil {
		return syscallErrFromWin("supervisor_windows.go", 286, "AssignProcessToJobObject", err)
	}

	if opts.MemoryLimitKiB > 0 {
		// Best-effort working-set cap (spec.md §4.3 step 2); failure here is
		// not fatal to the run since it is an advisory ceiling, unlike the
		// job object's hard CPU-time limit.
		if err := windows.SetProcessWorkingSetSize(process, 1, uintptr(opts.MemoryLimitKiB)*1024); err != nil {
			logger.Warn("set process working set size failed", logger.Fields{"error": err.Error()})
		}
	}

	return nil
}

func queryPeakMemoryKiB(process windows.Handle) (int64, error) {
	var counters windows.PROCESS_MEMORY_COUNTERS
	counters.Cb = uint32(unsafe.Sizeof(counters))
	if err := windows.GetProcessMemoryInfo(process, &counters); err != nil {
		return 0, syscallErrFromWin("supervisor_windows.go", 305, "GetProcessMemoryInfo", err)
	}

	return int64(counters.PeakWorkingSetSize / 1024), nil
}

func queryCPUTimeMs(process windows.Handle) (int64, error) {
	var creation, exit, kernel, user windows.Filetime
	if err := windows.GetProcessTimes(process, &creation, &exit, &kernel, &user); err != nil {
		return 0, syscallErrFromWin("supervisor_windows.go", 314, "GetProcessTimes", err)
	}

	cpu100ns := filetimeTo100ns(kernel) + filetimeTo100ns(user)
	return cpu100ns / 10000, nil
}

func filetimeTo100ns(ft windows.Filetime) int64 {
	return int64(ft.HighDateTime)<<32 | int64(ft.LowDateTime)
}

func syscallErrFromWin(file string, line int, name string, err error) error {
	errno := 0
	if e, ok := err.(syscall.Errno); ok {
		errno = int(e)
	}
	return &Error{Kind: KindSyscall, File: file, Line: line, Errno: errno, Msg: fmt.Sprintf("%s failed: %v", name, err)}
}
