package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_AccumulatesOptions(t *testing.T) {
	opts := NewBuilder("/bin/echo", "hi").
		TimeLimitMs(1000).
		CPUTimeLimitMs(500).
		MemoryLimitKiB(65536).
		FileSizeLimitBytes(1024).
		PidsLimit(16).
		Input("/tmp/in").
		Output("/tmp/out").
		Error("/tmp/err").
		Workdir("/tmp/work").
		NetworkEnabled(true).
		CgroupVersion(2).
		Result("/tmp/result.json").
		Build()

	assert.Equal(t, []string{"/bin/echo", "hi"}, opts.Command)
	assert.Equal(t, uint32(1000), opts.TimeLimitMs)
	assert.Equal(t, uint32(500), opts.CPUTimeLimitMs)
	assert.Equal(t, uint32(65536), opts.MemoryLimitKiB)
	assert.Equal(t, int32(1024), opts.FileSizeLimitBytes)
	assert.Equal(t, int32(16), opts.PidsLimit)
	assert.Equal(t, "/tmp/in", opts.Input)
	assert.Equal(t, "/tmp/out", opts.Output)
	assert.Equal(t, "/tmp/err", opts.Error)
	assert.Equal(t, "/tmp/work", opts.Workdir)
	assert.True(t, opts.NetworkEnabled)
	assert.Equal(t, 2, opts.CgroupVersion)
	assert.Equal(t, "/tmp/result.json", opts.Result)
}

func TestBuilder_DefaultsMatchZeroOptions(t *testing.T) {
	opts := NewBuilder("/bin/true").Build()

	assert.Equal(t, Options{Command: []string{"/bin/true"}}, opts)
}

func TestResult_GettersMatchStatus(t *testing.T) {
	status := Status{
		WallTimeMs:        100,
		CPUTimeMs:         80,
		PeakMemoryKiB:     4096,
		ExitCode:          1,
		RawStatus:         256,
		TerminationSignal: 0,
	}
	r := NewResult(status)

	assert.Equal(t, status.WallTimeMs, r.WallTimeMs())
	assert.Equal(t, status.CPUTimeMs, r.CPUTimeMs())
	assert.Equal(t, status.PeakMemoryKiB, r.PeakMemoryKiB())
	assert.Equal(t, status.ExitCode, r.ExitCode())
	assert.Equal(t, status.RawStatus, r.RawStatus())
	assert.Equal(t, status.TerminationSignal, r.TerminationSignal())
}
