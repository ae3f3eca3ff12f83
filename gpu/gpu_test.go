// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"errors"
	"image"
	"image/color"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"gioui.org/vmdisplay/internal/egl"
)

// testNode is a character device every system has. The software backend
// does not need a DRM node.
const testNode = "/dev/null"

func newTestDevice(t *testing.T, mode Mode) *Device {
	t.Helper()
	dev, err := InitDevice(testNode, mode, WithBackend(BackendSoftware))
	require.NoError(t, err)
	t.Cleanup(dev.Release)
	return dev
}

// newTestContext returns a context current with a 64x64 pbuffer.
func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := newTestDevice(t, ModeHeadless).CreateContext(ContextOptions{})
	require.NoError(t, err)
	surf, err := ctx.NewPbufferSurface(64, 64)
	require.NoError(t, err)
	require.NoError(t, ctx.MakeCurrent(surf))
	return ctx
}

// gradient returns an opaque image with distinct pixels.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8(x ^ y), A: 0xff})
		}
	}
	return img
}

func newUploaded(t *testing.T, ctx *Context, img *image.RGBA) *Framebuffer {
	t.Helper()
	fb, err := ctx.NewFramebuffer(img.Bounds().Dx(), img.Bounds().Dy())
	require.NoError(t, err)
	t.Cleanup(fb.Release)
	require.NoError(t, fb.Upload(img))
	return fb
}

func readback(t *testing.T, fb *Framebuffer) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(fb.Bounds())
	require.NoError(t, fb.ReadPixels(img))
	return img
}

func flipRows(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	h := img.Rect.Dy()
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[(h-1-y)*img.Stride:(h-y)*img.Stride])
	}
	return out
}

func TestInitDevice(t *testing.T) {
	dev := newTestDevice(t, ModeHeadless)
	assert.Equal(t, "software", dev.Backend())
	assert.Equal(t, testNode, dev.Node())
	assert.True(t, dev.QueryExtensionSupport("dmabuf-import"))
	assert.True(t, dev.QueryExtensionSupport("EGL_EXT_image_dma_buf_import"))
	assert.False(t, dev.QueryExtensionSupport("EGL_KHR_no_such_extension"))
	assert.Contains(t, dev.Extensions(), "EGL_EXT_image_dma_buf_import")
	assert.Equal(t, []string{"dmabuf-export", "dmabuf-import", "dmabuf-modifiers", "fence", "surfaceless"}, dev.Capabilities())
	dev.Release()
	dev.Release()
	assert.False(t, dev.QueryExtensionSupport("fence"))
	assert.Nil(t, dev.Extensions())
}

func TestContextInfo(t *testing.T) {
	ctx := newTestContext(t)
	info, err := ctx.Info()
	require.NoError(t, err)
	assert.Equal(t, "swgl", info.Renderer)
	assert.True(t, strings.HasPrefix(info.Version, "OpenGL ES 3.0"), info.Version)
	require.NoError(t, ctx.ReleaseCurrent())
	_, err = ctx.Info()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestInitDeviceErrors(t *testing.T) {
	_, err := InitDevice("/nonexistent/renderD128", ModeHeadless)
	require.ErrorIs(t, err, ErrDeviceOpen)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "InitDevice", e.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NotZero(t, e.Code)

	dir := t.TempDir()
	_, err = InitDevice(dir, ModeHeadless)
	assert.ErrorIs(t, err, ErrDeviceOpen)

	_, err = InitDevice(testNode, ModeWindowed, WithBackend(BackendSoftware))
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	_, err = InitDevice(testNode, Mode(7))
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestCreateContextLadder(t *testing.T) {
	dev := newTestDevice(t, ModeHeadless)
	ctx, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)
	assert.Equal(t, Version{Profile: ProfileES, Major: 3, Minor: 0}, ctx.Version().Version)
	assert.Equal(t, StateContextCreated, ctx.State())

	_, err = dev.CreateContext(ContextOptions{Profile: ProfileCore})
	require.ErrorIs(t, err, ErrContextCreation)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Len(t, e.Attempts, 9)
	assert.Equal(t, egl.BAD_MATCH, e.Code)
	msg := err.Error()
	for _, want := range []string{"4.6 core", "3.2 core", "EGL_BAD_MATCH"} {
		assert.Contains(t, msg, want)
	}

	_, err = dev.CreateContext(ContextOptions{Share: ctx})
	assert.ErrorIs(t, err, ErrContextCreation)

	other := newTestDevice(t, ModeHeadless)
	_, err = other.CreateContext(ContextOptions{Share: ctx})
	assert.ErrorIs(t, err, ErrContextCreation)
}

func TestContextLifecycle(t *testing.T) {
	dev := newTestDevice(t, ModeHeadless)
	ctx, err := dev.CreateContext(ContextOptions{Profile: ProfileES})
	require.NoError(t, err)

	_, err = ctx.NewFramebuffer(4, 4)
	assert.ErrorIs(t, err, ErrInvalidState, "framebuffer on a context that is not current")

	require.NoError(t, ctx.MakeCurrent(nil))
	assert.Equal(t, StateCurrent, ctx.State())
	assert.True(t, ctx.QueryExtensionSupport("GL_EXT_texture_format_BGRA8888"))
	require.NoError(t, ctx.ReleaseCurrent())
	assert.Equal(t, StateContextCreated, ctx.State())

	require.NoError(t, ctx.Destroy())
	assert.Equal(t, StateDestroyed, ctx.State())
	err = ctx.Destroy()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, ctx.MakeCurrent(nil), ErrInvalidState)

	var zero Context
	assert.Equal(t, StateUninitialized, zero.State())
	assert.ErrorIs(t, zero.Destroy(), ErrInvalidState)
	assert.False(t, zero.QueryExtensionSupport("fence"))
}

func TestMakeCurrentForeignSurface(t *testing.T) {
	dev := newTestDevice(t, ModeHeadless)
	a, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)
	b, err := dev.CreateContext(ContextOptions{})
	require.NoError(t, err)
	surf, err := a.NewPbufferSurface(8, 8)
	require.NoError(t, err)
	assert.ErrorIs(t, b.MakeCurrent(surf), ErrMakeCurrent)
	surf.Release()
	assert.ErrorIs(t, a.MakeCurrent(surf), ErrMakeCurrent)

	_, err = a.NewWindowSurface(1)
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestFramebufferRelease(t *testing.T) {
	ctx := newTestContext(t)
	before, ok := ctx.Resources()
	require.True(t, ok)

	fb, err := ctx.NewFramebuffer(32, 16)
	require.NoError(t, err)
	assert.True(t, fb.Owned())
	assert.Equal(t, image.Pt(32, 16), fb.Size())
	during, _ := ctx.Resources()
	assert.Equal(t, before.Textures+1, during.Textures)
	assert.Equal(t, before.Framebuffers+1, during.Framebuffers)

	fb.Release()
	fb.Release()
	after, _ := ctx.Resources()
	assert.Equal(t, before, after)
}

func TestBorrowedTexture(t *testing.T) {
	ctx := newTestContext(t)
	tex, err := ctx.NewTexture(8, 8)
	require.NoError(t, err)
	fb, err := ctx.NewTextureFramebuffer(8, 8, BorrowedTexture(tex.Name()))
	require.NoError(t, err)
	assert.False(t, fb.Owned())
	fb.Release()
	res, _ := ctx.Resources()
	assert.Equal(t, 1, res.Textures, "borrowed texture deleted with its framebuffer")
	ctx.DeleteTexture(tex)
	res, _ = ctx.Resources()
	assert.Equal(t, 0, res.Textures)

	_, err = ctx.NewTextureFramebuffer(8, 8, OwnedTexture(12345))
	assert.ErrorIs(t, err, ErrDraw)
	_, err = ctx.NewFramebuffer(0, 8)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReadRect(t *testing.T) {
	ctx := newTestContext(t)
	src := gradient(16, 16)
	fb := newUploaded(t, ctx, src)

	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))
	r := image.Rect(4, 2, 10, 12)
	require.NoError(t, fb.ReadRect(dst, r))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := color.RGBA{}
			if image.Pt(x, y).In(r) {
				want = src.RGBAAt(x, y)
			}
			if got := dst.RGBAAt(x, y); got != want {
				t.Fatalf("(%d,%d): got %v, expected %v", x, y, got, want)
			}
		}
	}

	for _, r := range []image.Rectangle{
		{},
		image.Rect(8, 8, 20, 12),
		image.Rect(-1, 0, 4, 4),
	} {
		assert.ErrorIs(t, fb.ReadRect(dst, r), ErrReadback, "rectangle %v", r)
	}
	small := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.ErrorIs(t, fb.ReadRect(small, image.Rect(2, 2, 6, 6)), ErrReadback)
	assert.ErrorIs(t, fb.ReadPixels(small), ErrReadback)
}

func TestBlitIdentity(t *testing.T) {
	ctx := newTestContext(t)
	b, err := NewBlitter(ctx, DefaultShaders())
	require.NoError(t, err)
	defer b.Release()

	src := gradient(24, 16)
	sfb := newUploaded(t, ctx, src)
	dfb, err := ctx.NewFramebuffer(24, 16)
	require.NoError(t, err)
	defer dfb.Release()

	require.NoError(t, b.Blit(dfb, sfb, false))
	assert.Equal(t, src.Pix, readback(t, dfb).Pix)
	assert.Equal(t, src.Pix, readback(t, sfb).Pix, "blit modified its source")
}

func TestBlitFlip(t *testing.T) {
	ctx := newTestContext(t)
	b, err := NewBlitter(ctx, DefaultShaders())
	require.NoError(t, err)
	defer b.Release()

	src := gradient(16, 12)
	sfb := newUploaded(t, ctx, src)
	tmp, err := ctx.NewFramebuffer(16, 12)
	require.NoError(t, err)
	defer tmp.Release()
	dfb, err := ctx.NewFramebuffer(16, 12)
	require.NoError(t, err)
	defer dfb.Release()

	require.NoError(t, b.Blit(tmp, sfb, true))
	assert.Equal(t, flipRows(src).Pix, readback(t, tmp).Pix)
	require.NoError(t, b.Blit(dfb, tmp, true))
	assert.Equal(t, src.Pix, readback(t, dfb).Pix)
}

func TestBlitErrors(t *testing.T) {
	ctx := newTestContext(t)
	b, err := NewBlitter(ctx, DefaultShaders())
	require.NoError(t, err)
	fb, err := ctx.NewFramebuffer(4, 4)
	require.NoError(t, err)
	def, err := ctx.NewDefaultFramebuffer(64, 64)
	require.NoError(t, err)

	assert.ErrorIs(t, b.Blit(fb, fb, false), ErrInvalidArgument)
	assert.ErrorIs(t, b.Blit(fb, def, false), ErrInvalidArgument)
	assert.ErrorIs(t, b.Blend(def, fb, false, 0, 0, -1, 1), ErrInvalidArgument)
	assert.ErrorIs(t, b.Blend(def, fb, false, 0, 0, 1e300, 1), ErrInvalidArgument)
	assert.ErrorIs(t, b.Blend(def, fb, false, 0, 0, 1, float64(maxSize)), ErrInvalidArgument)

	_, err = NewBlitter(ctx, Shaders{})
	assert.ErrorIs(t, err, ErrDraw)

	fb.Release()
	assert.ErrorIs(t, b.Blit(def, fb, false), ErrInvalidState)
	b.Release()
	b.Release()
	assert.ErrorIs(t, b.Blit(def, def, false), ErrInvalidState)
}

func TestBlendOpaque(t *testing.T) {
	ctx := newTestContext(t)
	b, err := NewBlitter(ctx, DefaultShaders())
	require.NoError(t, err)
	defer b.Release()

	src := gradient(16, 16)
	sfb := newUploaded(t, ctx, src)
	dfb, err := ctx.NewFramebuffer(16, 16)
	require.NoError(t, err)
	defer dfb.Release()
	require.NoError(t, dfb.Clear(colornames.Red))

	require.NoError(t, b.Blend(dfb, sfb, false, 0, 0, 1, 1))
	assert.Equal(t, src.Pix, readback(t, dfb).Pix)
}

func TestBlendPlacement(t *testing.T) {
	ctx := newTestContext(t)
	b, err := NewBlitter(ctx, DefaultShaders())
	require.NoError(t, err)
	defer b.Release()

	blue := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range blue.Pix {
		blue.Pix[i] = []byte{0, 0, 0xff, 0xff}[i%4]
	}
	sfb := newUploaded(t, ctx, blue)
	dfb, err := ctx.NewFramebuffer(16, 16)
	require.NoError(t, err)
	defer dfb.Release()
	require.NoError(t, dfb.Clear(color.RGBA{A: 0xff}))

	// Scaled by two and clipped at the right edge.
	require.NoError(t, b.Blend(dfb, sfb, false, 12, 2, 2, 2))
	img := readback(t, dfb)
	probes := []struct {
		p    image.Point
		blue bool
	}{
		{image.Pt(12, 2), true},
		{image.Pt(15, 9), true},
		{image.Pt(11, 2), false},
		{image.Pt(12, 1), false},
		{image.Pt(12, 10), false},
	}
	for _, pr := range probes {
		got := img.RGBAAt(pr.p.X, pr.p.Y)
		if (got.B == 0xff) != pr.blue {
			t.Errorf("pixel %v = %v, expected blue %v", pr.p, got, pr.blue)
		}
	}
}

func TestBlendTranslucent(t *testing.T) {
	ctx := newTestContext(t)
	b, err := NewBlitter(ctx, DefaultShaders())
	require.NoError(t, err)
	defer b.Release()

	half := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(half.Pix); i += 4 {
		copy(half.Pix[i:], []byte{0xff, 0, 0, 0x80})
	}
	sfb := newUploaded(t, ctx, half)
	dfb, err := ctx.NewFramebuffer(2, 2)
	require.NoError(t, err)
	defer dfb.Release()
	require.NoError(t, dfb.Clear(color.RGBA{B: 0xff, A: 0xff}))

	require.NoError(t, b.Blend(dfb, sfb, false, 0, 0, 1, 1))
	got := readback(t, dfb).RGBAAt(1, 1)
	assert.InDelta(t, 0x80, int(got.R), 1)
	assert.InDelta(t, 0x7f, int(got.B), 1)

	// Blending is off again: a blit replaces the pixels.
	require.NoError(t, b.Blit(dfb, sfb, false))
	assert.Equal(t, half.Pix, readback(t, dfb).Pix)
}

func TestDefaultFramebufferScenario(t *testing.T) {
	ctx := newTestContext(t)
	b, err := NewBlitter(ctx, DefaultShaders())
	require.NoError(t, err)
	defer b.Release()

	fill := colornames.Darkorange
	src, err := ctx.NewFramebuffer(64, 64)
	require.NoError(t, err)
	defer src.Release()
	require.NoError(t, src.Clear(fill))
	def, err := ctx.NewDefaultFramebuffer(64, 64)
	require.NoError(t, err)
	assert.Nil(t, def.Texture())

	require.NoError(t, b.Blit(def, src, false))
	img := readback(t, def)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if got := img.RGBAAt(x, y); got != fill {
				t.Fatalf("(%d,%d) = %v, expected %v", x, y, got, fill)
			}
		}
	}
}

func TestDefaultFramebufferSurface(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.NewDefaultFramebuffer(65, 64)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	def, err := ctx.NewDefaultFramebuffer(32, 32)
	require.NoError(t, err)
	src, err := ctx.NewFramebuffer(32, 32)
	require.NoError(t, err)
	defer src.Release()
	require.NoError(t, src.Clear(colornames.Teal))

	require.NoError(t, ctx.MakeCurrent(nil))
	_, err = ctx.NewDefaultFramebuffer(64, 64)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, src.CopyTo(def, false), ErrInvalidState)
	assert.ErrorIs(t, def.ReadPixels(image.NewRGBA(def.Bounds())), ErrInvalidState)
}

func TestCopyTo(t *testing.T) {
	ctx := newTestContext(t)
	src := gradient(8, 8)
	sfb := newUploaded(t, ctx, src)
	dfb, err := ctx.NewFramebuffer(8, 8)
	require.NoError(t, err)
	defer dfb.Release()

	require.NoError(t, sfb.CopyTo(dfb, false))
	assert.Equal(t, src.Pix, readback(t, dfb).Pix)
	require.NoError(t, sfb.CopyTo(dfb, true))
	assert.Equal(t, flipRows(src).Pix, readback(t, dfb).Pix)
	assert.ErrorIs(t, sfb.CopyTo(sfb, false), ErrInvalidArgument)
}

func TestOperationsAfterDestroy(t *testing.T) {
	ctx := newTestContext(t)
	b, err := NewBlitter(ctx, DefaultShaders())
	require.NoError(t, err)
	fb, err := ctx.NewFramebuffer(8, 8)
	require.NoError(t, err)
	other, err := ctx.NewFramebuffer(8, 8)
	require.NoError(t, err)
	require.NoError(t, ctx.Destroy())

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	assert.ErrorIs(t, fb.ReadPixels(img), ErrInvalidState)
	assert.ErrorIs(t, fb.Upload(img), ErrInvalidState)
	assert.ErrorIs(t, fb.Clear(color.RGBA{}), ErrInvalidState)
	assert.ErrorIs(t, b.Blit(other, fb, false), ErrInvalidState)
	assert.ErrorIs(t, b.Blend(other, fb, false, 0, 0, 1, 1), ErrInvalidState)
	_, err = ctx.ExportTexture(fb)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = ctx.NewFramebuffer(8, 8)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = ctx.NewDefaultFramebuffer(8, 8)
	assert.ErrorIs(t, err, ErrInvalidState)
	fb.Release()
	b.Release()
	res, ok := ctx.Resources()
	assert.True(t, ok, "software contexts count objects after Destroy")
	assert.Zero(t, res.Total())
}

func TestDeferredRelease(t *testing.T) {
	ctx := newTestContext(t)
	fb, err := ctx.NewFramebuffer(8, 8)
	require.NoError(t, err)
	require.NoError(t, ctx.ReleaseCurrent())
	fb.Release()
	res, _ := ctx.Resources()
	assert.Equal(t, 1, res.Framebuffers, "released without a current context")
	require.NoError(t, ctx.MakeCurrent(nil))
	res, _ = ctx.Resources()
	assert.Equal(t, 0, res.Framebuffers)
}

func TestErrorFormat(t *testing.T) {
	err := &Error{
		Kind: KindContextCreation,
		Op:   "CreateContext",
		Err:  errors.New("eglCreateContext failed"),
		Attempts: []Attempt{
			{Version: Version{Profile: ProfileES, Major: 3, Minor: 2}},
			{Version: Version{Profile: ProfileES, Major: 3, Minor: 1}},
		},
	}
	assert.Equal(t, "gpu: CreateContext: context creation failed: eglCreateContext failed; tried 3.2 es, 3.1 es", err.Error())
	assert.True(t, errors.Is(err, ErrContextCreation))
	assert.False(t, errors.Is(err, ErrImport))
	assert.Equal(t, "gpu: readback failed", ErrReadback.Error())
	assert.Equal(t, "ContextCreation", KindContextCreation.String())
	assert.Equal(t, "Kind(200)", Kind(200).String())
	assert.Equal(t, "Current", StateCurrent.String())
}

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig(strings.NewReader(`
node = "/dev/dri/renderD129"
backend = "software"
profile = "es"
debug = true
fence_timeout = "250ms"
`))
	require.NoError(t, err)
	assert.Equal(t, "/dev/dri/renderD129", c.Node)
	assert.Equal(t, ModeHeadless, c.Mode)
	assert.Equal(t, BackendSoftware, c.Backend)
	assert.Equal(t, ContextOptions{Profile: ProfileES, Debug: true}, c.ContextOptions())
	var o options
	for _, opt := range c.Options() {
		opt(&o)
	}
	assert.Equal(t, BackendSoftware, o.backend)
	assert.Equal(t, int64(250e6), int64(o.fenceTimeout))

	for _, bad := range []string{
		`mode = "fullscreen"`,
		`backend = "vulkan"`,
		`fence_timeout = "soon"`,
		`fence_timeout = "-1s"`,
		`node = ""`,
		`colour = "red"`,
	} {
		_, err := ParseConfig(strings.NewReader(bad))
		assert.Error(t, err, bad)
	}
}
