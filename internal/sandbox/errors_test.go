package sandbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	cases := map[Kind]string{
		KindConfig:        "config",
		KindSyscall:       "syscall",
		KindIO:            "io",
		KindSerialization: "serialization",
		KindGeneric:       "generic",
		Kind(99):          "generic",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestError_Error_Syscall(t *testing.T) {
	err := syscallErr("reexec_linux.go", 42, "clone", 1)
	assert.Equal(t, "reexec_linux.go:42: clone failed (errno 1)", err.Error())
}

func TestError_Error_WrappedGeneric(t *testing.T) {
	cause := errors.New("permission denied")
	err := ioErr("open redirect file", cause)
	assert.Equal(t, "open redirect file: permission denied", err.Error())
}

func TestError_Error_NoWrappedCause(t *testing.T) {
	err := configErr("empty command")
	assert.Equal(t, "empty command", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := serializationErr("encode status", cause)

	var sandboxErr *Error
	require := assert.New(t)
	require.ErrorAs(err, &sandboxErr)
	require.Equal(cause, sandboxErr.Unwrap())
	require.True(errors.Is(err, cause))
}

func TestError_KindIsPreserved(t *testing.T) {
	err := syscallErr("nsroot_linux.go", 10, "unshare", 22)

	var sandboxErr *Error
	assert.ErrorAs(t, err, &sandboxErr)
	assert.Equal(t, KindSyscall, sandboxErr.Kind)
	assert.Equal(t, 22, sandboxErr.Errno)
}
