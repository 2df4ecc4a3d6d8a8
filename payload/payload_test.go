package payload

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cdr.dev/slog/sloggers/slogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zqzqsb/seccompbench/pkg/seccomp/libseccomp"
)

func TestRunRemovesFile(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	opts := Options{
		Iterations: 1000,
		Dir:        dir,
		Stdout:     &out,
		Logger:     slogtest.Make(t, nil),
	}
	require.NoError(t, Run(context.Background(), opts))

	assert.Equal(t, "payload started\npayload finished\n", out.String())
	_, err := os.Stat(filepath.Join(dir, FileName))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunReusesLeakedFile(t *testing.T) {
	dir := t.TempDir()
	leaked := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(leaked, []byte("left over"), 0o644))

	require.NoError(t, Run(context.Background(), Options{Iterations: 10, Dir: dir, Stdout: &bytes.Buffer{}}))
	_, err := os.Stat(leaked)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunInvalidIterations(t *testing.T) {
	for _, n := range []int{0, -1} {
		err := Run(context.Background(), Options{Iterations: n, Dir: t.TempDir()})
		assert.Error(t, err)
	}
}

func TestRunUnknownProbe(t *testing.T) {
	dir := t.TempDir()
	err := Run(context.Background(), Options{Iterations: 1, Dir: dir, Probe: "no_such_syscall", Stdout: &bytes.Buffer{}})
	var nse *libseccomp.NoSuchSyscallError
	require.True(t, errors.As(err, &nse))

	// 解析失败发生在创建文件之前
	_, statErr := os.Stat(filepath.Join(dir, FileName))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

// 没有拦截器时 probe 只会得到一个错误返回值
func TestRunProbeWithoutInterceptor(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), Options{Iterations: 1, Dir: t.TempDir(), Probe: "socket", Stdout: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "payload finished")
}

func TestRunMissingDir(t *testing.T) {
	err := Run(context.Background(), Options{Iterations: 1, Dir: filepath.Join(t.TempDir(), "missing"), Stdout: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create temporary benchmark file")
}
