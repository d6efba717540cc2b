//go:build linux

package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPidsLimiter_ZeroLimitIsInactive(t *testing.T) {
	l := newPidsLimiter(0, 0)
	assert.False(t, l.active)
	assert.Empty(t, l.dir)

	// attach/release on an inactive limiter must be safe no-ops.
	l.attach(1)
	l.release()
}

func TestNewPidsLimiter_DegradesWhenCgroupUnavailable(t *testing.T) {
	// On a host without a writable v1 pids hierarchy (the usual test
	// sandbox) this exercises the degrade-gracefully path from DESIGN.md's
	// Open Question decision; on a host that has one, the test is skipped.
	root, version := resolveCgroupRoot(1)
	if root != "" {
		t.Skip("host has a writable v1 pids cgroup; degrade path not exercised here")
	}
	assert.Equal(t, cgroupAuto, version)

	l := newPidsLimiter(10, 1)
	assert.False(t, l.active)
}

func TestWritable_RejectsMissingDir(t *testing.T) {
	assert.False(t, writable("/this/path/does/not/exist/on/any/host"))
}
