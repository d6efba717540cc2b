//go:build linux

package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneFlags_NetworkDisabledAddsNewNet(t *testing.T) {
	flags := cloneFlags(false)
	assert.NotZero(t, flags&uintptr(unix.CLONE_NEWNET))
}

func TestCloneFlags_NetworkEnabledSharesHostNet(t *testing.T) {
	flags := cloneFlags(true)
	assert.Zero(t, flags&uintptr(unix.CLONE_NEWNET))
	// the rest of the namespace set is still requested.
	assert.NotZero(t, flags&uintptr(unix.CLONE_NEWPID))
	assert.NotZero(t, flags&uintptr(unix.CLONE_NEWUTS))
}

func TestRusageCPUTimeMs_SumsUserAndSystem(t *testing.T) {
	var ru unix.Rusage
	ru.Utime = unix.Timeval{Sec: 1, Usec: 500000}
	ru.Stime = unix.Timeval{Sec: 0, Usec: 500000}

	assert.Equal(t, int64(2000), rusageCPUTimeMs(ru))
}

func TestSyscallErrFromOS_CapturesErrno(t *testing.T) {
	err := syscallErrFromOS("supervisor_linux.go", 1, "wait4", syscall.ECHILD)

	var sandboxErr *Error
	require.ErrorAs(t, err, &sandboxErr)
	assert.Equal(t, KindSyscall, sandboxErr.Kind)
	assert.Equal(t, int(syscall.ECHILD), sandboxErr.Errno)
}

// requireRoot skips a test that needs CAP_SYS_ADMIN to create namespaces
// (this engine does not include CLONE_NEWUSER in cloneFlags, so an
// unprivileged caller cannot enter the other namespaces either).
func requireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("namespace entry requires root (no CLONE_NEWUSER in cloneFlags)")
	}
}

func TestRunSupervisor_EchoRedirectsOutput(t *testing.T) {
	requireRoot(t)

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	opts := Options{
		Command: []string{"/bin/echo", "hello"},
		Output:  outPath,
	}

	status, err := runSupervisor(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, status.ExitCode)
	assert.Equal(t, 0, status.TerminationSignal)

	buf, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(buf))
}

func TestRunSupervisor_WallClockDeadlineKillsGuest(t *testing.T) {
	requireRoot(t)

	opts := Options{
		Command:     []string{"/bin/sleep", "5"},
		TimeLimitMs: 200,
	}

	start := time.Now()
	status, err := runSupervisor(context.Background(), opts)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, syscall.SIGKILL, syscall.Signal(status.TerminationSignal))
	assert.Less(t, elapsed, 4*time.Second)
}

func TestRunSupervisor_RejectsMissingBinary(t *testing.T) {
	requireRoot(t)

	opts := Options{Command: []string{"/no/such/binary-river-test"}}

	status, err := runSupervisor(context.Background(), opts)
	require.NoError(t, err)
	// the guest stage reports a non-zero exit rather than the supervisor
	// itself failing: execve's ENOENT is the guest's own pre-exec failure.
	assert.NotEqual(t, 0, status.ExitCode)
}
