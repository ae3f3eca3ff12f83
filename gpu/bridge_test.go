// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"
	"golang.org/x/sys/unix"

	"gioui.org/vmdisplay/dmabuf"
	"gioui.org/vmdisplay/internal/drm"
)

// newScanout returns an XR24 buffer in shared memory filled with c. The
// buffer's descriptors are closed when the test ends.
func newScanout(t *testing.T, w, h int, c color.RGBA) *DmaBuf {
	t.Helper()
	stride := w*4 + 16
	fd, err := drm.NewSharedMemory("scanout", stride*h)
	require.NoError(t, err)
	data, err := drm.Map(fd, 0, stride*h, true)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(data[y*stride+x*4:], []byte{c.B, c.G, c.R, 0})
		}
	}
	require.NoError(t, drm.Unmap(data))
	buf := NewDmaBuf(dmabuf.New(fd, w, h, int32(stride), dmabuf.FormatXRGB8888, dmabuf.ModLinear))
	t.Cleanup(func() {
		buf.Close()
	})
	return buf
}

func TestImport(t *testing.T) {
	ctx := newTestContext(t)
	buf := newScanout(t, 16, 8, colornames.Teal)
	pending, err := ctx.ImportAsTexture(buf)
	require.NoError(t, err)
	fb, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, fb.Owned())
	assert.Equal(t, image.Pt(16, 8), fb.Size())
	assert.Same(t, fb, buf.Framebuffer())

	img := readback(t, fb)
	assert.Equal(t, colornames.Teal, img.RGBAAt(3, 5))

	_, err = ctx.ImportAsTexture(buf)
	assert.ErrorIs(t, err, ErrInvalidState, "second import of a buffer")

	ctx.ReleaseDmaBuf(buf)
	assert.Nil(t, buf.Framebuffer())
	assert.ErrorIs(t, fb.ReadPixels(img), ErrInvalidState)
	fb.Release()
	res, _ := ctx.Resources()
	assert.Zero(t, res.Total())
	// The buffer memory belongs to the producer.
	_, err = unix.FcntlInt(uintptr(buf.FD), unix.F_GETFD, 0)
	assert.NoError(t, err, "buffer fd closed by release")
}

func TestImportWritesThrough(t *testing.T) {
	ctx := newTestContext(t)
	buf := newScanout(t, 4, 4, colornames.Black)
	pending, err := ctx.ImportAsTexture(buf)
	require.NoError(t, err)
	fb, err := pending.Wait(context.Background())
	require.NoError(t, err)
	defer ctx.ReleaseDmaBuf(buf)

	require.NoError(t, fb.Clear(colornames.Yellow))
	img, err := dmabuf.ReadLinear(&buf.Buffer)
	require.NoError(t, err)
	assert.Equal(t, colornames.Yellow, img.RGBAAt(2, 2))
}

func TestImportExportRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	buf := newScanout(t, 24, 10, colornames.Coral)
	pending, err := ctx.ImportAsTexture(buf)
	require.NoError(t, err)
	fb, err := pending.Wait(context.Background())
	require.NoError(t, err)
	defer ctx.ReleaseDmaBuf(buf)

	out, err := ctx.ExportTexture(fb)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, buf.Width, out.Width)
	assert.Equal(t, buf.Height, out.Height)
	assert.Equal(t, buf.Fourcc, out.Fourcc)
	assert.NotEqual(t, buf.FD, out.FD)
	assert.False(t, out.HasFence())
}

func TestExport(t *testing.T) {
	ctx := newTestContext(t)
	fb, err := ctx.NewFramebuffer(8, 6)
	require.NoError(t, err)
	defer fb.Release()
	require.NoError(t, fb.Clear(colornames.Purple))

	out, err := ctx.ExportTexture(fb)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 8, out.Width)
	assert.Equal(t, 6, out.Height)
	assert.Equal(t, dmabuf.FormatABGR8888, out.Fourcc)
	assert.Equal(t, dmabuf.ModLinear, out.Modifier)

	img, err := dmabuf.ReadLinear(&out.Buffer)
	require.NoError(t, err)
	assert.Equal(t, colornames.Purple, img.RGBAAt(7, 5))

	// Rendering after the export shows through the shared memory.
	require.NoError(t, fb.Clear(colornames.Lime))
	img, err = dmabuf.ReadLinear(&out.Buffer)
	require.NoError(t, err)
	assert.Equal(t, colornames.Lime, img.RGBAAt(0, 0))

	def, err := ctx.NewDefaultFramebuffer(64, 64)
	require.NoError(t, err)
	_, err = ctx.ExportTexture(def)
	assert.ErrorIs(t, err, ErrExport)
}

func TestImportUnsupported(t *testing.T) {
	ctx := newTestContext(t)
	before, _ := ctx.Resources()

	tiled := newScanout(t, 8, 8, colornames.White)
	tiled.Modifier = dmabuf.Modifier(dmabuf.VendorIntel<<56 | 1)
	_, err := ctx.ImportAsTexture(tiled)
	assert.ErrorIs(t, err, ErrImport)

	yuv := newScanout(t, 8, 8, colornames.White)
	yuv.Fourcc = dmabuf.MakeFourcc('N', 'V', '1', '2')
	_, err = ctx.ImportAsTexture(yuv)
	assert.ErrorIs(t, err, ErrImport)

	short := newScanout(t, 8, 8, colornames.White)
	short.Height = 64
	_, err = ctx.ImportAsTexture(short)
	assert.ErrorIs(t, err, ErrImport)

	bad := NewDmaBuf(dmabuf.New(-1, 8, 8, 32, dmabuf.FormatXRGB8888, dmabuf.ModLinear))
	_, err = ctx.ImportAsTexture(bad)
	assert.ErrorIs(t, err, ErrImport)

	after, _ := ctx.Resources()
	assert.Equal(t, before, after, "failed imports left objects behind")
}

func TestFences(t *testing.T) {
	ctx := newTestContext(t)
	fb, err := ctx.NewFramebuffer(4, 4)
	require.NoError(t, err)
	defer fb.Release()
	out, err := ctx.ExportTexture(fb)
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, ctx.CreateSync(out))
	require.NoError(t, ctx.CreateSync(out))
	res, _ := ctx.Resources()
	assert.Equal(t, 1, res.Syncs, "replaced sync not released")

	require.NoError(t, ctx.AttachFence(out))
	require.True(t, out.HasFence())
	res, _ = ctx.Resources()
	assert.Zero(t, res.Syncs)
	signaled, err := dmabuf.PollFence(out.FenceFD)
	require.NoError(t, err)
	assert.True(t, signaled)

	// Attaching without CreateSync inserts a fence on demand.
	require.NoError(t, ctx.AttachFence(out))
	require.True(t, out.HasFence())

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ctx.WaitFence(waitCtx, out))
	assert.False(t, out.HasFence())
	require.NoError(t, ctx.WaitFence(waitCtx, out), "wait without fence")
}

func TestWaitFenceTimeout(t *testing.T) {
	dev, err := InitDevice(testNode, ModeHeadless, WithBackend(BackendSoftware), WithFenceTimeout(20*time.Millisecond))
	require.NoError(t, err)
	defer dev.Release()
	ctx, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)

	// An eventfd with a zero count never polls readable.
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	require.NoError(t, err)
	buf := NewDmaBuf(dmabuf.New(-1, 1, 1, 4, dmabuf.FormatXRGB8888, dmabuf.ModLinear))
	buf.FenceFD = fd
	defer buf.CloseFence()

	err = ctx.WaitFence(context.Background(), buf)
	require.ErrorIs(t, err, ErrFence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, fd, buf.FenceFD, "fence dropped after a failed wait")
}

func TestBufferOfAnotherContext(t *testing.T) {
	dev := newTestDevice(t, ModeHeadless)
	a, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)
	b, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)
	require.NoError(t, a.MakeCurrent(nil))
	require.NoError(t, b.MakeCurrent(nil))

	buf := newScanout(t, 4, 4, colornames.Gray)
	_, err = a.ImportAsTexture(buf)
	require.NoError(t, err)
	_, err = b.ImportAsTexture(buf)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, b.CreateSync(buf), ErrInvalidArgument)

	b.ReleaseDmaBuf(buf)
	assert.NotNil(t, buf.Framebuffer(), "released by a foreign context")
	a.ReleaseDmaBuf(buf)
	assert.Nil(t, buf.Framebuffer())
}

func TestImportAfterContextDestroyed(t *testing.T) {
	dev := newTestDevice(t, ModeHeadless)
	a, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)
	b, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)
	require.NoError(t, a.MakeCurrent(nil))
	require.NoError(t, b.MakeCurrent(nil))

	buf := newScanout(t, 4, 4, colornames.Olive)
	pending, err := a.ImportAsTexture(buf)
	require.NoError(t, err)
	old, err := pending.Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Destroy())
	a.ReleaseDmaBuf(buf)
	assert.Nil(t, buf.Framebuffer())

	pending, err = b.ImportAsTexture(buf)
	require.NoError(t, err)
	fb, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, colornames.Olive, readback(t, fb).RGBAAt(1, 2))
	assert.ErrorIs(t, old.ReadPixels(image.NewRGBA(old.Bounds())), ErrInvalidState)
	b.ReleaseDmaBuf(buf)

	// Without an explicit release the buffer is freed by the import.
	c, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)
	require.NoError(t, c.MakeCurrent(nil))
	_, err = c.ImportAsTexture(buf)
	require.NoError(t, err)
	require.NoError(t, c.Destroy())
	_, err = b.ImportAsTexture(buf)
	require.NoError(t, err)
	b.ReleaseDmaBuf(buf)
}
