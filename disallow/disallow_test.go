package disallow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/zqzqsb/seccompbench/pkg/seccomp/libseccomp"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	assert.Equal(t, len(DefaultNames), s.Len())
	assert.Equal(t, DefaultNames, s.Names())

	assert.True(t, s.Contains(unix.SYS_SOCKET))
	assert.True(t, s.Contains(unix.SYS_CONNECT))
	assert.True(t, s.Contains(unix.SYS_LISTEN))
	assert.False(t, s.Contains(unix.SYS_FCNTL))
	assert.False(t, s.Contains(unix.SYS_EXIT_GROUP))

	name, ok := s.Name(unix.SYS_BIND)
	assert.True(t, ok)
	assert.Equal(t, "bind", name)
}

func TestBuildDeterministic(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Equal(t, a.Numbers(), b.Numbers())
}

func TestBuildUnknownName(t *testing.T) {
	s, err := Build([]string{"socket", "definitely_not_a_syscall", "bind"})
	require.Error(t, err)
	assert.Zero(t, s.Len())
	assert.Contains(t, err.Error(), `failed to add system call "definitely_not_a_syscall"`)

	var nse *libseccomp.NoSuchSyscallError
	require.True(t, errors.As(err, &nse))
	assert.Equal(t, "definitely_not_a_syscall", nse.Name)
}

func TestBuildDuplicates(t *testing.T) {
	s, err := Build([]string{"socket", "socket", "bind"})
	require.NoError(t, err)
	assert.Equal(t, []string{"socket", "bind"}, s.Names())
	assert.Equal(t, []int{unix.SYS_SOCKET, unix.SYS_BIND}, s.Numbers())
}

func TestEmptySet(t *testing.T) {
	var s Set
	assert.False(t, s.Contains(unix.SYS_SOCKET))
	assert.Zero(t, s.Len())
}
