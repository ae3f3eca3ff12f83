// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package rendertest

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"testing"

	"golang.org/x/image/colornames"

	"gioui.org/vmdisplay/dmabuf"
	"gioui.org/vmdisplay/gpu"
	"gioui.org/vmdisplay/gpu/headless"
	"gioui.org/vmdisplay/internal/drm"
)

var (
	dumpImages  = flag.Bool("saveimages", false, "save test images")
	backendFlag = flag.String("backend", "software", "backend to render with: auto, native or software")
	nodeFlag    = flag.String("node", "", "render node, empty for the first one available")
)

var (
	red         = colornames.Red
	blue        = colornames.Blue
	green       = colornames.Green
	white       = colornames.White
	transparent = color.RGBA{}
)

const size = 128

func backend(t testing.TB) gpu.Backend {
	var b gpu.Backend
	if err := b.UnmarshalText([]byte(*backendFlag)); err != nil {
		t.Fatal(err)
	}
	return b
}

// renderNode returns the node the device tests open. The software
// backend accepts any character device.
func renderNode() string {
	if *nodeFlag != "" {
		return *nodeFlag
	}
	if nodes := drm.RenderNodes(); len(nodes) > 0 {
		return nodes[0]
	}
	return "/dev/null"
}

func newContext(t testing.TB) *gpu.Context {
	t.Helper()
	dev, err := gpu.InitDevice(renderNode(), gpu.ModeHeadless, gpu.WithBackend(backend(t)))
	if err != nil {
		t.Skipf("failed to open device, skipping: %v", err)
	}
	t.Cleanup(dev.Release)
	ctx, err := dev.CreateContext(gpu.ContextOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// The default framebuffer needs a surface.
	s, err := ctx.NewPbufferSurface(size, size)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.MakeCurrent(s); err != nil {
		t.Fatal(err)
	}
	return ctx
}

func newCompositor(t testing.TB, width, height int) *headless.Compositor {
	c, err := headless.NewCompositor(width, height, gpu.WithBackend(backend(t)))
	if err != nil {
		t.Skipf("failed to create compositor, skipping: %v", err)
	}
	return c
}

// buildSquares returns a 4 by 4 checkerboard with a blue top-left cell.
func buildSquares(size int) *image.RGBA {
	sub := size / 4
	im := image.NewRGBA(image.Rect(0, 0, size, size))
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			col := blue
			if (r+c)%2 == 1 {
				col = green
			}
			draw.Draw(im, image.Rect(c*sub, r*sub, c*sub+sub, r*sub+sub), image.NewUniform(col), image.Point{}, draw.Src)
		}
	}
	return im
}

// newScanout copies img to an AB24 buffer in shared memory with row 0 at
// the top.
func newScanout(t testing.TB, img *image.RGBA) *gpu.DmaBuf {
	t.Helper()
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	stride := w * 4
	fd, err := drm.NewSharedMemory("scanout", stride*h)
	if err != nil {
		t.Fatal(err)
	}
	data, err := drm.Map(fd, 0, stride*h, true)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		o := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(data[y*stride:], img.Pix[o:o+stride])
	}
	if err := drm.Unmap(data); err != nil {
		t.Fatal(err)
	}
	buf := gpu.NewDmaBuf(dmabuf.New(fd, w, h, int32(stride), dmabuf.FormatABGR8888, dmabuf.ModLinear))
	buf.Y0Top = true
	t.Cleanup(func() { buf.Close() })
	return buf
}

func drawImage(t *testing.T, draw func(c *headless.Compositor)) (*image.RGBA, error) {
	c := newCompositor(t, size, size)
	defer c.Release()
	draw(c)
	if err := c.Frame(context.Background()); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	err := c.Screenshot(img)
	return img, err
}

func run(t *testing.T, f func(c *headless.Compositor), c func(r result)) {
	// Draw a few times and check that it is correct each time, to
	// ensure reused GPU objects still generate the correct images.
	for i := 0; i < 3; i++ {
		img, err := drawImage(t, f)
		if err != nil {
			t.Error("error rendering:", err)
			return
		}
		saveImage(t, fmt.Sprintf("%s-%d.png", t.Name(), i), img)
		c(result{t: t, img: img})
	}
}

func colorsClose(c1, c2 color.RGBA) bool {
	const delta = 0.01 // magic value obtained from experimentation.
	return yiqEqApprox(c1, c2, delta)
}

// yiqEqApprox compares the colors of 2 pixels, in the NTSC YIQ color space,
// as described in:
//
//	Measuring perceived color difference using YIQ NTSC
//	transmission color space in mobile applications.
//	Yuriy Kotsarenko, Fernando Ramos.
func yiqEqApprox(c1, c2 color.RGBA, d2 float64) bool {
	const max = 35215.0 // difference between 2 maximally different pixels.

	var (
		r1 = float64(c1.R)
		g1 = float64(c1.G)
		b1 = float64(c1.B)

		r2 = float64(c2.R)
		g2 = float64(c2.G)
		b2 = float64(c2.B)

		y1 = r1*0.29889531 + g1*0.58662247 + b1*0.11448223
		i1 = r1*0.59597799 - g1*0.27417610 - b1*0.32180189
		q1 = r1*0.21147017 - g1*0.52261711 + b1*0.31114694

		y2 = r2*0.29889531 + g2*0.58662247 + b2*0.11448223
		i2 = r2*0.59597799 - g2*0.27417610 - b2*0.32180189
		q2 = r2*0.21147017 - g2*0.52261711 + b2*0.31114694

		y = y1 - y2
		i = i1 - i2
		q = q1 - q2

		diff = 0.5053*y*y + 0.299*i*i + 0.1957*q*q
	)
	return diff <= max*d2
}

func (r result) expect(x, y int, col color.RGBA) {
	r.t.Helper()
	if r.img == nil {
		return
	}
	c := r.img.RGBAAt(x, y)
	if !colorsClose(c, col) {
		r.t.Error("expected ", col, " at ", "(", x, ",", y, ") but got ", c)
	}
}

type result struct {
	t   *testing.T
	img *image.RGBA
}

func saveImage(t testing.TB, file string, img *image.RGBA) {
	if !*dumpImages {
		return
	}
	// Only NRGBA images are losslessly encoded by png.Encode.
	nrgba := image.NewNRGBA(img.Bounds())
	draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		t.Error(err)
		return
	}
	if err := os.WriteFile(file, buf.Bytes(), 0666); err != nil {
		t.Error(err)
		return
	}
}
