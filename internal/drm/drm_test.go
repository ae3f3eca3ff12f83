// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package drm

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "renderD128"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
	var perr *os.PathError
	assert.True(t, errors.As(err, &perr))
}

func TestOpenRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrNotDevice)
}

func TestOpenCharDevice(t *testing.T) {
	n, err := Open("/dev/null")
	if err != nil {
		t.Skipf("/dev/null unavailable: %v", err)
	}
	defer n.Close()
	assert.False(t, n.IsDRM())
	assert.False(t, n.IsRenderNode())
	assert.GreaterOrEqual(t, n.Fd(), 0)
	require.NoError(t, n.Close())
	assert.Equal(t, -1, n.Fd())
	assert.NoError(t, n.Close())
}

func TestSharedMemory(t *testing.T) {
	fd, err := NewSharedMemory("test", 4096)
	require.NoError(t, err)
	defer unix.Close(fd)

	size, err := Size(fd)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, size)

	w, err := Map(fd, 0, 4096, true)
	require.NoError(t, err)
	w[0], w[4095] = 0xca, 0xfe
	require.NoError(t, Unmap(w))

	dup, err := Dup(fd)
	require.NoError(t, err)
	defer unix.Close(dup)
	r, err := Map(dup, 0, 4096, false)
	require.NoError(t, err)
	defer Unmap(r)
	assert.Equal(t, byte(0xca), r[0])
	assert.Equal(t, byte(0xfe), r[4095])
}

func TestSignaledFence(t *testing.T) {
	fd, err := NewSignaledFence()
	require.NoError(t, err)
	defer unix.Close(fd)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
