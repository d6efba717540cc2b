package sandbox

import (
	"os"
	"testing"
)

// TestMain lets the compiled test binary itself act as the re-exec target:
// the supervisor re-invokes "its own binary" (os.Executable()), which
// during `go test` is this test binary. Intercepting the hidden sentinel
// here, before testing's own flag parsing and m.Run(), is what makes the
// end-to-end tests in supervisor_linux_test.go able to exercise a real
// clone/re-exec/wait4 cycle without a separately built river binary.
func TestMain(m *testing.M) {
	MaybeReexec()
	os.Exit(m.Run())
}
