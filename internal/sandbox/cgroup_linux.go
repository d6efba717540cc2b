//go:build linux

package sandbox

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/algoux/river/internal/logger"
)

// cgroupVersion mirrors the small enum shape of the teacher's lxd/cgroup
// package (a Property/version-keyed dispatch), reduced here to the single
// property SPEC_FULL.md's C8 actually needs: pids.max.
type cgroupVersion int

const (
	cgroupAuto cgroupVersion = iota
	cgroupV1
	cgroupV2
)

const (
	cgroupV1PidsRoot = "/sys/fs/cgroup/pids"
	cgroupV2Root     = "/sys/fs/cgroup"
)

// pidsLimiter manages the lifetime of one per-invocation cgroup directory
// used solely to cap process/thread count (C8 in SPEC_FULL.md). It has no
// effect unless Options.PidsLimit is set; failures here are never fatal to
// the run (see DESIGN.md's Open Question decision).
type pidsLimiter struct {
	dir    string
	active bool
}

// newPidsLimiter creates and configures the per-invocation cgroup. It
// never returns an error: unavailability degrades to an inactive limiter
// and a logged warning, matching the "pids_limit degrades gracefully"
// decision, since the other four limits are rlimit-backed and must not be
// held hostage to cgroup availability.
func newPidsLimiter(pidsLimit int32, version int) *pidsLimiter {
	if pidsLimit <= 0 {
		return &pidsLimiter{}
	}

	root, ver := resolveCgroupRoot(version)
	if root == "" {
		logger.Warn("no writable pids cgroup found; pids_limit will not be enforced")
		return &pidsLimiter{}
	}

	dir := filepath.Join(root, "river-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		logger.Warn("create pids cgroup failed; pids_limit will not be enforced", logger.Fields{"error": err.Error()})
		return &pidsLimiter{}
	}

	maxFile := filepath.Join(dir, "pids.max")
	if err := os.WriteFile(maxFile, []byte(strconv.Itoa(int(pidsLimit))), 0o644); err != nil {
		logger.Warn("write pids.max failed; pids_limit will not be enforced", logger.Fields{"error": err.Error()})
		_ = os.Remove(dir)
		return &pidsLimiter{}
	}

	_ = ver // only used for root selection above; kept for future per-version divergence.

	return &pidsLimiter{dir: dir, active: true}
}

// attach writes pid into the cgroup's process list. Called once the
// namespace-root process (the eventual PID 1 of the new PID namespace) has
// been started and before the supervisor sends it its request, so the
// root cannot have forked the guest candidate yet and the cap is live
// before the guest's first instruction.
func (p *pidsLimiter) attach(pid int) {
	if !p.active {
		return
	}

	procsFile := filepath.Join(p.dir, "cgroup.procs")
	if err := os.WriteFile(procsFile, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		logger.Warn("attach process to pids cgroup failed; pids_limit will not be enforced", logger.Fields{"error": err.Error()})
		p.active = false
	}
}

// release removes the per-invocation cgroup directory. Best effort: the
// kernel reclaims an empty, unreferenced cgroup regardless.
func (p *pidsLimiter) release() {
	if p.dir == "" {
		return
	}

	if err := os.Remove(p.dir); err != nil {
		logger.Warn("remove pids cgroup directory failed", logger.Fields{"dir": p.dir, "error": err.Error()})
	}
}

// resolveCgroupRoot picks the pids-controller mount for the requested
// version (0 means auto-detect: prefer v2, fall back to v1).
func resolveCgroupRoot(version int) (string, cgroupVersion) {
	tryV2 := func() (string, cgroupVersion) {
		if writable(cgroupV2Root) {
			return cgroupV2Root, cgroupV2
		}
		return "", cgroupAuto
	}
	tryV1 := func() (string, cgroupVersion) {
		if writable(cgroupV1PidsRoot) {
			return cgroupV1PidsRoot, cgroupV1
		}
		return "", cgroupAuto
	}

	switch version {
	case 1:
		return tryV1()
	case 2:
		return tryV2()
	default:
		if root, v := tryV2(); root != "" {
			return root, v
		}
		return tryV1()
	}
}

// writable reports whether dir exists and a file can actually be created
// in it; stat alone would miss the common case of a mounted-but-readonly
// or permission-denied cgroup hierarchy.
func writable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}

	f, err := os.CreateTemp(dir, ".river-probe-*")
	if err != nil {
		return false
	}

	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
