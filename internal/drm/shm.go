// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package drm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewSharedMemory returns a sealed-size anonymous memory file of size bytes.
func NewSharedMemory(name string, size int) (int, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return -1, fmt.Errorf("drm: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("drm: ftruncate: %w", err)
	}
	// Consumers map the memory; it must not shrink under them.
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("drm: seal: %w", err)
	}
	return fd, nil
}

// Size returns the size of the file behind fd.
func Size(fd int) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return 0, err
	}
	return st.Size, nil
}

// Map maps size bytes of fd at offset, shared and writable when
// writable is set.
func Map(fd int, offset int64, size int, writable bool) ([]byte, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(fd, offset, size, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("drm: mmap: %w", err)
	}
	return data, nil
}

func Unmap(data []byte) error {
	if data == nil {
		return nil
	}
	return unix.Munmap(data)
}

// Dup duplicates fd with the close-on-exec flag set.
func Dup(fd int) (int, error) {
	nfd, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("drm: dup: %w", err)
	}
	return nfd, nil
}

// NewSignaledFence returns a file descriptor that polls readable at once,
// standing in for a sync file whose GPU work already retired.
func NewSignaledFence() (int, error) {
	fd, err := unix.Eventfd(1, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, fmt.Errorf("drm: eventfd: %w", err)
	}
	return fd, nil
}
