// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

// Package software implements the headless-stub backend. Contexts run on
// the software rasterizer, DMA-BUFs are shared through mappings of their
// file descriptors and fences are signaled on creation.
package software

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
	"gioui.org/vmdisplay/internal/swgl"
	"golang.org/x/sys/unix"
)

const maxSurfaceSize = 16384

type device struct {
	node *drm.Node
}

type context struct {
	dev     *device
	f       *swgl.Functions
	version driver.Version
	// shared maps textures to the descriptors backing their storage.
	shared map[uint]sharedMemory
}

type sharedMemory struct {
	fd     int
	fourcc dmabuf.Fourcc
}

type surface struct {
	ctx *context
	s   *swgl.Surface
}

type fence struct {
	f    *swgl.Functions
	sync gl.Sync
}

var logger = log.With("software")

func init() {
	driver.NewSoftwareDevice = newDevice
}

func newDevice(node *drm.Node, api driver.Software) (driver.Device, error) {
	if api.Mode != driver.ModeHeadless {
		return nil, fmt.Errorf("software: %w: %s composition needs a window system", driver.ErrUnsupportedMode, api.Mode)
	}
	logger.Debug("device opened", "node", node.Path())
	return &device{node: node}, nil
}

func (d *device) Backend() string {
	return "software"
}

func (d *device) Extensions() []string {
	return []string{
		"EGL_KHR_surfaceless_context",
		"EGL_KHR_fence_sync",
		"EGL_ANDROID_native_fence_sync",
		"EGL_EXT_image_dma_buf_import",
		"EGL_EXT_image_dma_buf_import_modifiers",
		"EGL_MESA_image_dma_buf_export",
	}
}

func (d *device) Has(f driver.Feature) bool {
	switch f {
	case driver.FeatureDmabufImport, driver.FeatureDmabufExport, driver.FeatureDmabufModifiers,
		driver.FeatureNativeFence, driver.FeatureSurfaceless:
		return true
	}
	return false
}

// NewContext accepts OpenGL ES 2.0 and 3.0, the versions the rasterizer
// implements.
func (d *device) NewContext(v driver.Version, share driver.Context, debug bool) (driver.Context, error) {
	if v.Profile != driver.ProfileES || v.Major > 3 || (v.Major == 3 && v.Minor > 0) {
		return nil, &driver.Error{Call: "eglCreateContext", Code: egl.BAD_MATCH, Name: egl.ErrorString(egl.BAD_MATCH)}
	}
	if share != nil {
		return nil, &driver.Error{
			Call:   "eglCreateContext",
			Code:   egl.BAD_CONTEXT,
			Name:   egl.ErrorString(egl.BAD_CONTEXT),
			Detail: "software contexts do not share objects",
		}
	}
	return &context{
		dev:     d,
		f:       swgl.New(v.Major, v.Minor),
		version: v,
		shared:  make(map[uint]sharedMemory),
	}, nil
}

func (d *device) Release() {}

func (c *context) Functions() gl.Functions {
	return c.f
}

func (c *context) Resources() driver.Resources {
	r := c.f.Resources()
	return driver.Resources{
		Textures:     r.Textures,
		Framebuffers: r.Framebuffers,
		Programs:     r.Programs,
		Shaders:      r.Shaders,
		Buffers:      r.Buffers,
		VertexArrays: r.VertexArrays,
		Syncs:        r.Syncs,
	}
}

func (c *context) MakeCurrent(s driver.Surface) error {
	if s == nil {
		c.f.SetSurface(nil)
		return nil
	}
	surf, ok := s.(*surface)
	if !ok || surf.ctx != c || surf.s == nil {
		return &driver.Error{Call: "eglMakeCurrent", Code: egl.BAD_SURFACE, Name: egl.ErrorString(egl.BAD_SURFACE)}
	}
	c.f.SetSurface(surf.s)
	return nil
}

func (c *context) ReleaseCurrent() error {
	c.f.SetSurface(nil)
	return nil
}

func (c *context) NewPbufferSurface(width, height int) (driver.Surface, error) {
	if width <= 0 || height <= 0 || width > maxSurfaceSize || height > maxSurfaceSize {
		return nil, &driver.Error{
			Call:   "eglCreatePbufferSurface",
			Code:   egl.BAD_PARAMETER,
			Name:   egl.ErrorString(egl.BAD_PARAMETER),
			Detail: fmt.Sprintf("size %dx%d", width, height),
		}
	}
	return &surface{ctx: c, s: swgl.NewSurface(width, height)}, nil
}

func (c *context) NewWindowSurface(win uintptr) (driver.Surface, error) {
	return nil, fmt.Errorf("software: window surface: %w", driver.ErrUnsupportedMode)
}

func layoutOf(f dmabuf.Fourcc) (swgl.Layout, bool) {
	switch f {
	case dmabuf.FormatXRGB8888:
		return swgl.LayoutBGRX, true
	case dmabuf.FormatARGB8888:
		return swgl.LayoutBGRA, true
	case dmabuf.FormatXBGR8888:
		return swgl.LayoutRGBX, true
	case dmabuf.FormatABGR8888:
		return swgl.LayoutRGBA, true
	}
	return 0, false
}

func fourccOf(l swgl.Layout) dmabuf.Fourcc {
	switch l {
	case swgl.LayoutBGRX:
		return dmabuf.FormatXRGB8888
	case swgl.LayoutBGRA:
		return dmabuf.FormatARGB8888
	case swgl.LayoutRGBX:
		return dmabuf.FormatXBGR8888
	default:
		return dmabuf.FormatABGR8888
	}
}

func (c *context) ImportTexture(buf *dmabuf.Buffer) (gl.Texture, error) {
	if err := buf.Validate(); err != nil {
		return gl.Texture{}, err
	}
	layout, ok := layoutOf(buf.Fourcc)
	if !ok {
		return gl.Texture{}, fmt.Errorf("software: unsupported format %s", buf.Fourcc)
	}
	if buf.Modifier != dmabuf.ModLinear && buf.Modifier != dmabuf.ModInvalid {
		return gl.Texture{}, fmt.Errorf("software: unsupported modifier %s", buf.Modifier)
	}
	size, err := drm.Size(buf.FD)
	if err != nil {
		return gl.Texture{}, fmt.Errorf("software: import: %w", err)
	}
	if size < int64(buf.Size()) {
		return gl.Texture{}, fmt.Errorf("software: import: buffer of %d bytes smaller than %d", size, buf.Size())
	}
	data, err := drm.Map(buf.FD, 0, buf.Size(), true)
	if err != nil {
		return gl.Texture{}, err
	}
	tex := c.f.CreateTexture()
	st := swgl.Storage{Width: buf.Width, Height: buf.Height, Stride: int(buf.Stride), Layout: layout, Pix: data}
	release := func() {
		if err := drm.Unmap(data); err != nil {
			logger.Warn("unmap imported buffer", "error", err)
		}
		delete(c.shared, tex.V)
	}
	if err := c.f.SetExternalStorage(tex, st, release); err != nil {
		drm.Unmap(data)
		c.f.DeleteTexture(tex)
		return gl.Texture{}, err
	}
	c.shared[tex.V] = sharedMemory{fd: buf.FD, fourcc: buf.Fourcc}
	return tex, nil
}

// ExportTexture moves the texture storage into shared memory on first
// export. Later exports, and exports of imported textures, duplicate the
// existing descriptor.
func (c *context) ExportTexture(tex gl.Texture) (*dmabuf.Buffer, error) {
	st, ok := c.f.TextureStorage(tex)
	if !ok {
		return nil, errors.New("software: export: texture has no storage")
	}
	mem, ok := c.shared[tex.V]
	if !ok {
		var err error
		mem, err = c.share(tex, st)
		if err != nil {
			return nil, err
		}
	}
	fd, err := drm.Dup(mem.fd)
	if err != nil {
		return nil, err
	}
	return dmabuf.New(fd, st.Width, st.Height, int32(st.Stride), mem.fourcc, dmabuf.ModLinear), nil
}

func (c *context) share(tex gl.Texture, st swgl.Storage) (sharedMemory, error) {
	size := st.Stride * st.Height
	fd, err := drm.NewSharedMemory("vmdisplay-texture", size)
	if err != nil {
		return sharedMemory{}, err
	}
	data, err := drm.Map(fd, 0, size, true)
	if err != nil {
		unix.Close(fd)
		return sharedMemory{}, err
	}
	copy(data, st.Pix)
	st.Pix = data
	release := func() {
		if err := drm.Unmap(data); err != nil {
			logger.Warn("unmap exported texture", "error", err)
		}
		unix.Close(fd)
		delete(c.shared, tex.V)
	}
	if err := c.f.SetExternalStorage(tex, st, release); err != nil {
		drm.Unmap(data)
		unix.Close(fd)
		return sharedMemory{}, err
	}
	mem := sharedMemory{fd: fd, fourcc: fourccOf(st.Layout)}
	c.shared[tex.V] = mem
	return mem, nil
}

func (c *context) NewFence() (driver.Fence, error) {
	s := c.f.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if !s.Valid() {
		return nil, fmt.Errorf("software: fence: %s", gl.ErrorString(c.f.GetError()))
	}
	c.f.Flush()
	return &fence{f: c.f, sync: s}, nil
}

func (c *context) Release() {
	c.f.Release()
}

func (s *surface) Size() image.Point {
	if s.s == nil {
		return image.Point{}
	}
	return s.s.Size()
}

func (s *surface) Release() {
	if s.s != nil && s.ctx.f.Surface() == s.s {
		s.ctx.f.SetSurface(nil)
	}
	s.s = nil
}

// FD returns a descriptor that polls readable at once: rasterization
// completes during submission.
func (f *fence) FD() (int, error) {
	if f.f.ClientWaitSync(f.sync, 0, 0) == gl.WAIT_FAILED {
		return -1, fmt.Errorf("software: fence: %s", gl.ErrorString(f.f.GetError()))
	}
	return drm.NewSignaledFence()
}

func (f *fence) Release() {
	f.f.DeleteSync(f.sync)
}
