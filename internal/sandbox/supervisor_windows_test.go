//go:build windows

package sandbox

import (
	"testing"

	"golang.org/x/sys/windows"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommandLine_QuotesArgsWithSpaces(t *testing.T) {
	line, err := buildCommandLine([]string{"C:\\judge\\run.exe", "hello world", "plain"})
	require.NoError(t, err)
	assert.Equal(t, `C:\judge\run.exe "hello world" plain`, line)
}

func TestBuildCommandLine_EscapesEmbeddedQuotes(t *testing.T) {
	line, err := buildCommandLine([]string{"prog", `say "hi"`})
	require.NoError(t, err)
	assert.Equal(t, `prog "say \"hi\""`, line)
}

func TestBuildCommandLine_NoSpecialCharsUnquoted(t *testing.T) {
	line, err := buildCommandLine([]string{"prog", "-flag", "value"})
	require.NoError(t, err)
	assert.Equal(t, "prog -flag value", line)
}

func TestBuildCommandLine_EmptyCommandRejected(t *testing.T) {
	_, err := buildCommandLine(nil)
	require.Error(t, err)
}

func TestFiletimeTo100ns_CombinesHighAndLow(t *testing.T) {
	ft := windows.Filetime{HighDateTime: 1, LowDateTime: 2}
	assert.Equal(t, int64(1)<<32|int64(2), filetimeTo100ns(ft))
}
