package sandbox

import "fmt"

// Status is the engine's result record. Exactly one of ExitCode (normal
// termination) and TerminationSignal (killed) carries meaningful
// information for an abnormal termination; a clean exit(0) reports both
// as zero. See spec.md §3 for the full invariant set.
type Status struct {
	WallTimeMs        int64 `json:"time_used"`
	CPUTimeMs         int64 `json:"cpu_time_used"`
	PeakMemoryKiB     int64 `json:"memory_used"`
	ExitCode          int   `json:"exit_code"`
	RawStatus         int   `json:"status"`
	TerminationSignal int   `json:"signal"`
}

func (s Status) String() string {
	return fmt.Sprintf(
		"Status{wall=%dms cpu=%dms mem=%dKiB exit=%d signal=%d}",
		s.WallTimeMs, s.CPUTimeMs, s.PeakMemoryKiB, s.ExitCode, s.TerminationSignal,
	)
}

// DeadlineSignal is the platform-neutral "killed by deadline" signal code
// synthesized on Windows (which has no POSIX signal number) and used
// verbatim for a POSIX SIGKILL-by-deadline, per spec.md §4.3 step 7.
const DeadlineSignal = 9
