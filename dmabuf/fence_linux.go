// SPDX-License-Identifier: Unlicense OR MIT

package dmabuf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// pollSlice bounds a single poll so cancellation of the context is noticed.
const pollSlice = 50 * time.Millisecond

// PollFence reports whether the sync file fd has signaled, without
// blocking.
func PollFence(fd int) (bool, error) {
	return pollFence(fd, 0)
}

// WaitFence blocks until the sync file fd signals or ctx is done.
func WaitFence(ctx context.Context, fd int) error {
	for {
		timeout := pollSlice
		if d, ok := ctx.Deadline(); ok {
			if left := time.Until(d); left < timeout {
				timeout = left
			}
		}
		if timeout < 0 {
			timeout = 0
		}
		ok, err := pollFence(fd, int(timeout/time.Millisecond))
		if err != nil || ok {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dmabuf: fence %d: %w", fd, err)
		}
	}
}

func pollFence(fd int, timeoutMs int) (bool, error) {
	if fd < 0 {
		return false, fmt.Errorf("dmabuf: invalid fence fd %d", fd)
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, timeoutMs)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("dmabuf: poll fence: %w", err)
		}
		if n == 0 {
			return false, nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			return false, fmt.Errorf("dmabuf: fence %d: poll revents 0x%x", fd, fds[0].Revents)
		}
		return fds[0].Revents&unix.POLLIN != 0, nil
	}
}

// CloseFence closes the attached fence, if any.
func (b *Buffer) CloseFence() error {
	if b.FenceFD < 0 {
		return nil
	}
	err := unix.Close(b.FenceFD)
	b.FenceFD = -1
	return err
}

// Close closes the buffer and fence descriptors. Only the side that owns
// the buffer may call it.
func (b *Buffer) Close() error {
	err := b.CloseFence()
	if b.FD >= 0 {
		if cerr := unix.Close(b.FD); err == nil {
			err = cerr
		}
		b.FD = -1
	}
	return err
}
