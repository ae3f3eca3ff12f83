// SPDX-License-Identifier: Unlicense OR MIT

// Package dmabuf describes DMA-BUF buffers exchanged with guest scanout
// producers and host compositors: the descriptor, its wire encoding, the
// DRM format vocabulary and sync-file fences.
package dmabuf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Buffer describes a single plane DMA-BUF. The file descriptors belong to
// whichever side allocated them; code that only borrows a Buffer must not
// close them.
type Buffer struct {
	FD       int
	Width    int
	Height   int
	Stride   int32
	Fourcc   Fourcc
	Modifier Modifier
	// FenceFD is a sync file signaled when the producer's writes retired,
	// or -1.
	FenceFD int
	// Y0Top reports whether row 0 is the top of the image.
	Y0Top bool
}

// WireSize is the size of an encoded Buffer.
const WireSize = 40

const (
	flagFence = 1 << 0
	flagY0Top = 1 << 1
)

var errShortBuffer = errors.New("dmabuf: short descriptor")

// New returns a Buffer without a fence.
func New(fd, width, height int, stride int32, format Fourcc, mod Modifier) *Buffer {
	return &Buffer{
		FD:       fd,
		Width:    width,
		Height:   height,
		Stride:   stride,
		Fourcc:   format,
		Modifier: mod,
		FenceFD:  -1,
	}
}

// HasFence reports whether a fence is attached.
func (b *Buffer) HasFence() bool {
	return b.FenceFD >= 0
}

// Size returns the number of bytes spanned by the plane.
func (b *Buffer) Size() int {
	return int(b.Stride) * b.Height
}

// Validate checks the descriptor for internal consistency.
func (b *Buffer) Validate() error {
	switch {
	case b.FD < 0:
		return fmt.Errorf("dmabuf: invalid fd %d", b.FD)
	case b.Width <= 0 || b.Height <= 0:
		return fmt.Errorf("dmabuf: invalid size %dx%d", b.Width, b.Height)
	case b.Stride <= 0:
		return fmt.Errorf("dmabuf: invalid stride %d", b.Stride)
	}
	if bpp := b.Fourcc.BytesPerPixel(); bpp > 0 && int(b.Stride) < b.Width*bpp {
		return fmt.Errorf("dmabuf: stride %d too small for %d %s pixels", b.Stride, b.Width, b.Fourcc)
	}
	return nil
}

func (b *Buffer) String() string {
	return fmt.Sprintf("dmabuf{fd=%d %dx%d stride=%d %s mod=%s fence=%d}",
		b.FD, b.Width, b.Height, b.Stride, b.Fourcc, b.Modifier, b.FenceFD)
}

// MarshalBinary encodes the descriptor in the little endian wire layout
//
//	fd int32 | width uint32 | height uint32 | stride int32 |
//	fourcc uint32 | flags uint32 | modifier uint64 | fence_fd int32 | reserved uint32
func (b *Buffer) MarshalBinary() ([]byte, error) {
	data := make([]byte, WireSize)
	le := binary.LittleEndian
	le.PutUint32(data[0:], uint32(int32(b.FD)))
	le.PutUint32(data[4:], uint32(b.Width))
	le.PutUint32(data[8:], uint32(b.Height))
	le.PutUint32(data[12:], uint32(b.Stride))
	le.PutUint32(data[16:], uint32(b.Fourcc))
	var flags uint32
	if b.HasFence() {
		flags |= flagFence
	}
	if b.Y0Top {
		flags |= flagY0Top
	}
	le.PutUint32(data[20:], flags)
	le.PutUint64(data[24:], uint64(b.Modifier))
	fence := int32(-1)
	if b.HasFence() {
		fence = int32(b.FenceFD)
	}
	le.PutUint32(data[32:], uint32(fence))
	return data, nil
}

// UnmarshalBinary decodes the layout written by MarshalBinary.
func (b *Buffer) UnmarshalBinary(data []byte) error {
	if len(data) < WireSize {
		return errShortBuffer
	}
	le := binary.LittleEndian
	flags := le.Uint32(data[20:])
	*b = Buffer{
		FD:       int(int32(le.Uint32(data[0:]))),
		Width:    int(le.Uint32(data[4:])),
		Height:   int(le.Uint32(data[8:])),
		Stride:   int32(le.Uint32(data[12:])),
		Fourcc:   Fourcc(le.Uint32(data[16:])),
		Modifier: Modifier(le.Uint64(data[24:])),
		FenceFD:  -1,
		Y0Top:    flags&flagY0Top != 0,
	}
	if flags&flagFence != 0 {
		b.FenceFD = int(int32(le.Uint32(data[32:])))
	}
	return nil
}
