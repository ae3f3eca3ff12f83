// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package rendertest

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net"
	"os"
	"testing"

	"golang.org/x/image/colornames"
	"golang.org/x/sys/unix"

	"gioui.org/vmdisplay/dmabuf"
	"gioui.org/vmdisplay/gpu"
	"gioui.org/vmdisplay/gpu/headless"
)

func TestFilledBlitToDefault(t *testing.T) {
	ctx := newContext(t)
	src, err := ctx.NewFramebuffer(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Release()
	dst, err := ctx.NewDefaultFramebuffer(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Release()
	b, err := gpu.NewBlitter(ctx, gpu.DefaultShaders())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	if err := src.Clear(colornames.Darkorange); err != nil {
		t.Fatal(err)
	}
	if err := b.Blit(dst, src, false); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(dst.Bounds())
	if err := dst.ReadPixels(img); err != nil {
		t.Fatal(err)
	}
	saveImage(t, "blit-default.png", img)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if got := img.RGBAAt(x, y); got != colornames.Darkorange {
				t.Fatalf("(%d,%d): got color %v, expected %v", x, y, got, colornames.Darkorange)
			}
		}
	}
}

func TestImportUnsupportedModifier(t *testing.T) {
	ctx := newContext(t)
	before, counted := ctx.Resources()
	buf := newScanout(t, buildSquares(16))
	buf.Modifier = dmabuf.Modifier(dmabuf.VendorIntel<<56 | 2)
	_, err := ctx.ImportAsTexture(buf)
	if !errors.Is(err, gpu.ErrImport) {
		t.Fatalf("got %v, expected an import error", err)
	}
	if buf.Framebuffer() != nil {
		t.Error("failed import left a framebuffer")
	}
	if after, _ := ctx.Resources(); counted && after != before {
		t.Errorf("failed import leaked objects: %+v, expected %+v", after, before)
	}
}

func TestDestroyedContext(t *testing.T) {
	ctx := newContext(t)
	fb, err := ctx.NewFramebuffer(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	b, err := gpu.NewBlitter(ctx, gpu.DefaultShaders())
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Destroy(); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(fb.Bounds())
	checks := map[string]error{
		"ReadPixels":      fb.ReadPixels(img),
		"Clear":           fb.Clear(red),
		"Upload":          fb.Upload(img),
		"Blit":            b.Blit(fb, fb, false),
		"NewFramebuffer":  func() error { _, err := ctx.NewFramebuffer(8, 8); return err }(),
		"ImportAsTexture": func() error { _, err := ctx.ImportAsTexture(newScanout(t, img)); return err }(),
		"MakeCurrent":     ctx.MakeCurrent(nil),
	}
	for name, err := range checks {
		if !errors.Is(err, gpu.ErrInvalidState) {
			t.Errorf("%s after Destroy: got %v, expected an invalid state error", name, err)
		}
	}
	// Releasing objects of a destroyed context is a no-op.
	fb.Release()
	b.Release()
}

func TestOverlay(t *testing.T) {
	run(t, func(c *headless.Compositor) {
		c.SetBackground(white)
		if err := c.AddScanout(newScanout(t, buildSquares(64)), 0, 0, 1, 1); err != nil {
			t.Fatal(err)
		}
		if err := c.AddScanout(newScanout(t, buildSquares(32)), 80, 80, 1.5, 1.5); err != nil {
			t.Fatal(err)
		}
	}, func(r result) {
		r.expect(8, 8, blue)
		r.expect(24, 8, green)
		r.expect(8, 24, green)
		r.expect(40, 40, blue)
		r.expect(70, 70, white)
		r.expect(86, 86, blue)
		r.expect(98, 86, green)
		r.expect(122, 122, blue)
		r.expect(127, 0, white)
	})
}

func TestTranslucentOverlay(t *testing.T) {
	run(t, func(c *headless.Compositor) {
		c.SetBackground(blue)
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		for i := 0; i < len(img.Pix); i += 4 {
			// Straight alpha: the blend multiplies by source alpha.
			copy(img.Pix[i:], []byte{0xff, 0, 0, 0x80})
		}
		if err := c.AddScanout(newScanout(t, img), 16, 16, 2, 2); err != nil {
			t.Fatal(err)
		}
	}, func(r result) {
		r.expect(8, 8, blue)
		r.expect(40, 40, color.RGBA{R: 0x80, B: 0x7f, A: 0xff})
		r.expect(79, 79, color.RGBA{R: 0x80, B: 0x7f, A: 0xff})
		r.expect(100, 100, blue)
	})
}

func TestTransparentBackground(t *testing.T) {
	run(t, func(c *headless.Compositor) {
		if err := c.AddScanout(newScanout(t, buildSquares(16)), -8, -8, 1, 1); err != nil {
			t.Fatal(err)
		}
	}, func(r result) {
		// Only the bottom-right quarter of the squares is visible.
		r.expect(0, 0, blue)
		r.expect(4, 0, green)
		r.expect(0, 4, green)
		r.expect(4, 4, blue)
		r.expect(20, 20, transparent)
	})
}

func socketPair(t *testing.T) (*net.UnixConn, *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatal(err)
	}
	conn := func(fd int) *net.UnixConn {
		f := os.NewFile(uintptr(fd), "socket")
		defer f.Close()
		c, err := net.FileConn(f)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { c.Close() })
		return c.(*net.UnixConn)
	}
	return conn(fds[0]), conn(fds[1])
}

// TestGuestPipeline renders in a producer context, passes the exported
// buffer and its fence over a socket and composites it in a consumer.
func TestGuestPipeline(t *testing.T) {
	producer := newContext(t)
	fb, err := producer.NewFramebuffer(32, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer fb.Release()
	out, err := producer.ExportTexture(fb)
	if err != nil {
		t.Skipf("export unsupported, skipping: %v", err)
	}
	defer out.Close()
	defer producer.ReleaseDmaBuf(out)
	if err := fb.Clear(colornames.Crimson); err != nil {
		t.Fatal(err)
	}
	if err := producer.AttachFence(out); err != nil {
		t.Fatal(err)
	}
	out.Y0Top = true

	a, b := socketPair(t)
	if err := dmabuf.Send(a, &out.Buffer); err != nil {
		t.Fatal(err)
	}
	got, err := dmabuf.Recv(b)
	if err != nil {
		t.Fatal(err)
	}
	scanout := gpu.NewDmaBuf(got)
	defer scanout.Close()
	if !scanout.HasFence() || !scanout.Y0Top {
		t.Fatalf("received %v, expected a top-down buffer with a fence", got)
	}

	c := newCompositor(t, 64, 64)
	defer c.Release()
	c.SetBackground(white)
	if err := c.AddScanout(scanout, 16, 16, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Frame(context.Background()); err != nil {
		t.Fatal(err)
	}
	if scanout.HasFence() {
		t.Error("frame did not consume the producer fence")
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	if err := c.Screenshot(img); err != nil {
		t.Fatal(err)
	}
	saveImage(t, "pipeline.png", img)
	r := result{t: t, img: img}
	r.expect(20, 20, colornames.Crimson)
	r.expect(47, 47, colornames.Crimson)
	r.expect(8, 8, white)
	r.expect(50, 50, white)
}
