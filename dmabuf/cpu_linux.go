// SPDX-License-Identifier: Unlicense OR MIT

package dmabuf

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DMA_BUF_IOCTL_SYNC and its flags, from linux/dma-buf.h.
const (
	ioctlSync = 0x40086200

	syncRead  = 1 << 0
	syncStart = 0 << 2
	syncEnd   = 1 << 2
)

type dmaBufSync struct {
	flags uint64
}

// ReadLinear copies a linear 32 bit buffer into a new RGBA image. It is
// the CPU path for buffers a GPU context cannot import.
func ReadLinear(b *Buffer) (*image.RGBA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Modifier != ModLinear && b.Modifier != ModInvalid {
		return nil, fmt.Errorf("dmabuf: cannot read %s layout on the CPU", b.Modifier)
	}
	if b.Fourcc.BytesPerPixel() != 4 {
		return nil, fmt.Errorf("dmabuf: unsupported format %s", b.Fourcc)
	}
	data, err := unix.Mmap(b.FD, 0, b.Size(), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("dmabuf: mmap: %w", err)
	}
	defer unix.Munmap(data)
	if err := syncAccess(b.FD, syncStart|syncRead); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		src := data[y*int(b.Stride):]
		dst := img.Pix[y*img.Stride:]
		ConvertRow(b.Fourcc, dst, src, b.Width)
	}
	if err := syncAccess(b.FD, syncEnd|syncRead); err != nil {
		return nil, err
	}
	return img, nil
}

// syncAccess brackets CPU access for exporters that need cache
// maintenance. Memory that is not a DMA-BUF, such as a memfd, rejects the
// ioctl with ENOTTY, which is ignored.
func syncAccess(fd int, flags uint64) error {
	s := dmaBufSync{flags: flags}
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), ioctlSync, uintptr(unsafe.Pointer(&s)))
		switch {
		case errno == 0, errors.Is(errno, unix.ENOTTY), errors.Is(errno, unix.EINVAL):
			return nil
		case errors.Is(errno, unix.EINTR), errors.Is(errno, unix.EAGAIN):
			continue
		default:
			return fmt.Errorf("dmabuf: DMA_BUF_IOCTL_SYNC: %w", errno)
		}
	}
}
