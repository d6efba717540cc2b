package sandbox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatusRoundTrip covers spec.md §8's round-trip invariant: writing a
// Status to JSON and re-parsing yields an equal record.
func TestStatusRoundTrip(t *testing.T) {
	original := Status{
		WallTimeMs:        1234,
		CPUTimeMs:         1000,
		PeakMemoryKiB:     4096,
		ExitCode:          0,
		RawStatus:         0,
		TerminationSignal: 9,
	}

	buf, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Status
	require.NoError(t, json.Unmarshal(buf, &decoded))

	assert.Equal(t, original, decoded)
}

func TestStatusJSONFieldNames(t *testing.T) {
	buf, err := json.Marshal(Status{
		WallTimeMs:        1,
		CPUTimeMs:         2,
		PeakMemoryKiB:     3,
		ExitCode:          4,
		RawStatus:         5,
		TerminationSignal: 6,
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf, &m))

	// spec.md §4.6 fixes these exact field names.
	for _, key := range []string{"time_used", "cpu_time_used", "memory_used", "exit_code", "status", "signal"} {
		_, ok := m[key]
		assert.True(t, ok, "missing field %q", key)
	}
}

func TestStatusExactlyOneOfExitCodeOrSignal(t *testing.T) {
	normal := Status{ExitCode: 0, TerminationSignal: 0}
	assert.Equal(t, 0, normal.ExitCode)
	assert.Equal(t, 0, normal.TerminationSignal)

	killed := Status{ExitCode: 0, TerminationSignal: 9}
	assert.Zero(t, killed.ExitCode)
	assert.NotZero(t, killed.TerminationSignal)
}
