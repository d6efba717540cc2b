package sandbox

// Options is the caller-owned configuration consumed once by the engine.
// Every numeric limit is "zero or absent means uncapped by this engine";
// the OS may still impose its own ceilings. See spec.md §3 and §4.1.
type Options struct {
	// Command is the ordered, non-empty argument vector: element 0 is the
	// executable path, the remainder are arguments.
	Command []string

	TimeLimitMs        uint32
	CPUTimeLimitMs     uint32
	MemoryLimitKiB     uint32
	FileSizeLimitBytes int32
	PidsLimit          int32

	// Input/Output/Error are optional redirect paths, resolved relative to
	// the caller's working directory. Absent (empty string) means inherit.
	Input  string
	Output string
	Error  string

	// Workdir is the guest's working directory (POSIX only). Absent means
	// inherit the supervisor's working directory.
	Workdir string

	// NetworkEnabled, when true, shares the host network namespace with the
	// guest (POSIX only). Default false: the guest gets a fresh, empty
	// network namespace.
	NetworkEnabled bool

	// CgroupVersion selects the pids-controller layout (1 or 2) used by the
	// optional cgroup pids limiter when PidsLimit is set (POSIX only).
	// Zero means "auto-detect" (see cgroup_linux.go).
	CgroupVersion int

	// Result is the optional file path for the serialized Status; absent
	// means write to stdout.
	Result string
}

// Validate applies the rules in spec.md §4.1. It is always called before
// any OS call, so a configuration error never costs a syscall.
func (o Options) Validate() error {
	if len(o.Command) == 0 {
		return configErr("command must be non-empty")
	}

	if o.Command[0] == "" {
		return configErr("command[0] (the executable path) must not be empty")
	}

	if o.CgroupVersion != 0 && o.CgroupVersion != 1 && o.CgroupVersion != 2 {
		return configErr("cgroup_version must be 1, 2, or absent")
	}

	return nil
}

// hasTimeLimit reports whether a wall-clock deadline was requested.
func (o Options) hasTimeLimit() bool {
	return o.TimeLimitMs > 0
}

// hasCPULimit reports whether a CPU-time ceiling was requested.
func (o Options) hasCPULimit() bool {
	return o.CPUTimeLimitMs > 0
}

// hasMemoryLimit reports whether an address-space ceiling was requested.
func (o Options) hasMemoryLimit() bool {
	return o.MemoryLimitKiB > 0
}

// hasFileSizeLimit reports whether a per-file write ceiling was requested.
func (o Options) hasFileSizeLimit() bool {
	return o.FileSizeLimitBytes > 0
}

// hasPidsLimit reports whether a process-count ceiling was requested.
func (o Options) hasPidsLimit() bool {
	return o.PidsLimit > 0
}
