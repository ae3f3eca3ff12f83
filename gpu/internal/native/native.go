// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux && cgo

package native

import (
	"errors"
	"fmt"
	"image"

	"gioui.org/vmdisplay/dmabuf"
	"gioui.org/vmdisplay/gpu/internal/driver"
	"gioui.org/vmdisplay/internal/drm"
	"gioui.org/vmdisplay/internal/egl"
	"gioui.org/vmdisplay/internal/gl"
	"gioui.org/vmdisplay/internal/log"
	"golang.org/x/sys/unix"
)

type device struct {
	disp *egl.Display
	mode driver.Mode
}

type context struct {
	dev *device
	ctx *egl.Context
	api egl.API
	f   *functions
}

type surface struct {
	ctx    *context
	s      *egl.Surface
	window bool
	size   image.Point
}

type fence struct {
	dev  *device
	sync egl.Sync
}

var logger = log.With("native")

var features = map[driver.Feature]string{
	driver.FeatureDmabufImport:    "EGL_EXT_image_dma_buf_import",
	driver.FeatureDmabufExport:    "EGL_MESA_image_dma_buf_export",
	driver.FeatureDmabufModifiers: "EGL_EXT_image_dma_buf_import_modifiers",
	driver.FeatureNativeFence:     "EGL_ANDROID_native_fence_sync",
	driver.FeatureSurfaceless:     "EGL_KHR_surfaceless_context",
}

func init() {
	driver.NewNativeDevice = newDevice
}

func newDevice(node *drm.Node, api driver.Native) (driver.Device, error) {
	var (
		disp *egl.Display
		err  error
	)
	switch api.Mode {
	case driver.ModeHeadless:
		disp, err = egl.OpenGBM(node.Fd())
	case driver.ModeWindowed:
		if api.Display == 0 {
			return nil, fmt.Errorf("native: %w: windowed composition needs a native display", driver.ErrUnsupportedMode)
		}
		disp, err = egl.OpenNative(api.Display)
	default:
		return nil, fmt.Errorf("native: %w: %s", driver.ErrUnsupportedMode, api.Mode)
	}
	if err != nil {
		return nil, convertErr(err)
	}
	logger.Info("display initialized", "node", node.Path(), "mode", api.Mode,
		"egl", fmt.Sprintf("%d.%d", disp.Major, disp.Minor), "vendor", disp.Vendor)
	return &device{disp: disp, mode: api.Mode}, nil
}

// convertErr turns EGL failures into driver errors.
func convertErr(err error) error {
	var e *egl.Error
	if errors.As(err, &e) {
		return &driver.Error{Call: e.Call, Code: e.Code, Name: egl.ErrorString(e.Code)}
	}
	return err
}

func (d *device) Backend() string {
	return "native"
}

func (d *device) Extensions() []string {
	return d.disp.Extensions()
}

func (d *device) Has(f driver.Feature) bool {
	ext, ok := features[f]
	return ok && d.disp.HasExtension(ext)
}

func (d *device) NewContext(v driver.Version, share driver.Context, debug bool) (driver.Context, error) {
	api, core := egl.OPENGL_ES_API, false
	if v.Profile == driver.ProfileCore {
		api, core = egl.OPENGL_API, true
	}
	var sh *egl.Context
	if share != nil {
		s, ok := share.(*context)
		if !ok || s.dev != d {
			return nil, &driver.Error{Call: "eglCreateContext", Code: egl.BAD_CONTEXT, Name: egl.ErrorString(egl.BAD_CONTEXT)}
		}
		sh = s.ctx
	}
	ctx, err := d.disp.CreateContext(api, v.Major, v.Minor, core, debug, d.mode == driver.ModeWindowed, sh)
	if err != nil {
		return nil, convertErr(err)
	}
	f, err := loadFunctions()
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	return &context{dev: d, ctx: ctx, api: api, f: f}, nil
}

func (d *device) Release() {
	d.disp.Terminate()
}

func (c *context) Functions() gl.Functions {
	return c.f
}

func (c *context) MakeCurrent(s driver.Surface) error {
	var es *egl.Surface
	if s != nil {
		surf, ok := s.(*surface)
		if !ok || surf.ctx != c || surf.s == nil {
			return &driver.Error{Call: "eglMakeCurrent", Code: egl.BAD_SURFACE, Name: egl.ErrorString(egl.BAD_SURFACE)}
		}
		es = surf.s
	}
	return convertErr(c.dev.disp.MakeCurrent(c.ctx, es))
}

func (c *context) ReleaseCurrent() error {
	return convertErr(c.dev.disp.ReleaseCurrent(c.api))
}

func (c *context) NewPbufferSurface(width, height int) (driver.Surface, error) {
	s, err := c.ctx.CreatePbufferSurface(width, height)
	if err != nil {
		return nil, convertErr(err)
	}
	return &surface{ctx: c, s: s, size: image.Pt(width, height)}, nil
}

func (c *context) NewWindowSurface(win uintptr) (driver.Surface, error) {
	if c.dev.mode != driver.ModeWindowed {
		return nil, fmt.Errorf("native: window surface: %w", driver.ErrUnsupportedMode)
	}
	s, err := c.ctx.CreateWindowSurface(win)
	if err != nil {
		return nil, convertErr(err)
	}
	return &surface{ctx: c, s: s, window: true}, nil
}

// ImportTexture binds an EGLImage of buf to a new texture. The image is
// destroyed at once; the texture keeps the buffer referenced.
func (c *context) ImportTexture(buf *dmabuf.Buffer) (gl.Texture, error) {
	if err := buf.Validate(); err != nil {
		return gl.Texture{}, err
	}
	if !c.dev.Has(driver.FeatureDmabufImport) {
		return gl.Texture{}, errors.New("native: import: EGL_EXT_image_dma_buf_import not supported")
	}
	img, err := c.dev.disp.ImportDmaBuf(egl.Plane{
		FD:       buf.FD,
		Width:    buf.Width,
		Height:   buf.Height,
		Fourcc:   uint32(buf.Fourcc),
		Stride:   int(buf.Stride),
		Modifier: uint64(buf.Modifier),
	})
	if err != nil {
		return gl.Texture{}, convertErr(err)
	}
	defer c.dev.disp.DestroyImage(img)
	f := c.f
	prev := gl.Texture{V: uint(f.GetInteger(gl.TEXTURE_BINDING_2D))}
	defer f.BindTexture(gl.TEXTURE_2D, prev)
	tex := f.CreateTexture()
	f.BindTexture(gl.TEXTURE_2D, tex)
	if !f.eglImageTargetTexture2D(gl.TEXTURE_2D, uintptr(img)) {
		f.DeleteTexture(tex)
		return gl.Texture{}, errors.New("native: import: glEGLImageTargetTexture2DOES not supported")
	}
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	if code := f.GetError(); code != gl.NO_ERROR {
		f.DeleteTexture(tex)
		return gl.Texture{}, fmt.Errorf("native: import: %s", gl.ErrorString(code))
	}
	return tex, nil
}

func (c *context) ExportTexture(tex gl.Texture) (*dmabuf.Buffer, error) {
	if !c.dev.Has(driver.FeatureDmabufExport) {
		return nil, errors.New("native: export: EGL_MESA_image_dma_buf_export not supported")
	}
	img, err := c.ctx.TextureImage(tex.V)
	if err != nil {
		return nil, convertErr(err)
	}
	defer c.dev.disp.DestroyImage(img)
	p, err := c.dev.disp.ExportDmaBuf(img)
	if err != nil {
		return nil, convertErr(err)
	}
	if p.Offset != 0 {
		unix.Close(p.FD)
		return nil, fmt.Errorf("native: export: plane offset %d", p.Offset)
	}
	return dmabuf.New(p.FD, 0, 0, int32(p.Stride), dmabuf.Fourcc(p.Fourcc), dmabuf.Modifier(p.Modifier)), nil
}

func (c *context) NewFence() (driver.Fence, error) {
	if !c.dev.Has(driver.FeatureNativeFence) {
		return nil, errors.New("native: fence: EGL_ANDROID_native_fence_sync not supported")
	}
	s, err := c.dev.disp.CreateNativeFence()
	if err != nil {
		return nil, convertErr(err)
	}
	c.f.Flush()
	return &fence{dev: c.dev, sync: s}, nil
}

func (c *context) Release() {
	c.f.release()
	c.ctx.Destroy()
}

func (s *surface) Size() image.Point {
	if s.s == nil {
		return image.Point{}
	}
	if s.window {
		w, h := s.s.Size()
		return image.Pt(w, h)
	}
	return s.size
}

func (s *surface) Release() {
	if s.s != nil {
		s.s.Destroy()
		s.s = nil
	}
}

func (f *fence) FD() (int, error) {
	fd, err := f.dev.disp.DupNativeFence(f.sync)
	return fd, convertErr(err)
}

func (f *fence) Release() {
	f.dev.disp.DestroySync(f.sync)
}
