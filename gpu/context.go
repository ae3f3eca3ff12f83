// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"gioui.org/vmdisplay/gpu/internal/driver"
	"gioui.org/vmdisplay/internal/gl"
)

//go:generate go tool stringer -type=State -trimprefix=State

// State is the lifecycle state of a Context.
type State uint8

const (
	StateUninitialized State = iota
	StateDeviceOpen
	StateContextCreated
	// StateCurrent is a context bound on its render thread.
	StateCurrent
	// StateDestroyed is terminal.
	StateDestroyed
)

// ContextOptions configures CreateContext.
type ContextOptions struct {
	// Profile restricts the versions tried. ProfileAny tries the core
	// profile versions before the ES versions.
	Profile Profile
	// Share is a context of the same device to share objects with.
	Share *Context
	// Debug requests a debug context.
	Debug bool
}

// Context is a GPU context bound to its own locked OS thread. Methods
// may be called from any goroutine; they run in call order on the render
// thread and return once the work is submitted.
type Context struct {
	dev          *Device
	log          *slog.Logger
	fenceTimeout time.Duration

	// mu is held for writing by Destroy and for reading by every call
	// that runs on the render thread.
	mu      sync.RWMutex
	state   atomic.Uint32
	work    chan func()
	stopped chan struct{}

	version Attempt
	extMu   sync.Mutex
	exts    []string

	// Render thread state.
	drv      driver.Context
	f        gl.Functions
	caps     caps
	surface  *Surface
	deferred []func(gl.Functions)
}

// caps lists the entry points the context version provides beyond
// OpenGL ES 2.0.
type caps struct {
	fenceSync    bool
	blit         bool
	vertexArrays bool
}

// Surface is a window or pbuffer surface of a Context.
type Surface struct {
	ctx  *Context
	drv  driver.Surface
	size image.Point
}

// CreateContext creates a context, trying the versions of opts.Profile
// from the most capable down to OpenGL ES 2.0.
func (d *Device) CreateContext(opts ContextOptions) (*Context, error) {
	const op = "CreateContext"
	var share driver.Context
	if s := opts.Share; s != nil {
		if s.dev != d {
			return nil, errorf(KindContextCreation, op, "share context belongs to another device")
		}
		if st := s.State(); st != StateContextCreated && st != StateCurrent {
			return nil, errorf(KindInvalidState, op, "share context is %s", st)
		}
		share = s.drv
	}
	c := &Context{
		dev:          d,
		fenceTimeout: d.opts.fenceTimeout,
		work:         make(chan func()),
		stopped:      make(chan struct{}),
	}
	c.state.Store(uint32(StateDeviceOpen))
	id, err := d.register(c)
	if err != nil {
		return nil, newError(KindInvalidState, op, err)
	}
	c.log = d.log.With(slog.Int("context", id))
	var attempts []Attempt
	create := func() error {
		drv, tried, ok := driver.WalkLadder(opts.Profile, func(v Version) (driver.Context, error) {
			return d.drv.NewContext(v, share, opts.Debug)
		})
		attempts = tried
		for _, a := range tried {
			c.log.Debug("context attempt", "version", a.Version, "error", a.Err)
		}
		if !ok {
			var last error
			if n := len(tried); n > 0 {
				last = tried[n-1].Err
			} else {
				last = fmt.Errorf("no %s versions to try", opts.Profile)
			}
			e := newError(KindContextCreation, op, last)
			e.Attempts = tried
			return e
		}
		c.drv = drv
		c.f = drv.Functions()
		c.version = tried[len(tried)-1]
		return nil
	}
	if err := c.start(create); err != nil {
		d.forget(c)
		return nil, err
	}
	v := c.version.Version
	modern := v.Profile == ProfileCore || v.Major >= 3
	c.caps = caps{fenceSync: modern, blit: modern, vertexArrays: modern}
	c.state.Store(uint32(StateContextCreated))
	c.log.Info("context created", "version", v, "backend", d.drv.Backend(), "attempts", len(attempts))
	return c, nil
}

// start runs the render thread. Like the GL render loop it derives from,
// it reports the result of init through a channel.
func (c *Context) start(init func() error) error {
	initErr := make(chan error)
	go func() {
		defer close(c.stopped)
		runtime.LockOSThread()
		// Don't UnlockOSThread to avoid reuse by the Go runtime.

		if err := init(); err != nil {
			initErr <- err
			return
		}
		initErr <- nil
		for f := range c.work {
			f()
		}
	}()
	return <-initErr
}

// run executes f on the render thread and waits for it.
func (c *Context) run(f func()) {
	done := make(chan struct{})
	c.work <- func() {
		defer close(done)
		f()
	}
	<-done
}

// do runs f on the render thread unless the context is destroyed. f must
// not call do.
func (c *Context) do(op string, f func() error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch st := c.State(); st {
	case StateContextCreated, StateCurrent:
	default:
		return errorf(KindInvalidState, op, "context is %s", st)
	}
	var err error
	c.run(func() {
		err = f()
	})
	return err
}

// doCurrent is like do for operations that need the context current.
func (c *Context) doCurrent(op string, f func(f gl.Functions) error) error {
	return c.do(op, func() error {
		if st := c.State(); st != StateCurrent {
			return errorf(KindInvalidState, op, "context is %s, not current", st)
		}
		return f(c.f)
	})
}

// release deletes objects with f, at once if the context is current or
// else the next time it is made current. Destroyed contexts have freed
// their objects already.
func (c *Context) release(op string, f func(f gl.Functions)) {
	c.do(op, func() error {
		if c.State() == StateCurrent {
			f(c.f)
		} else {
			c.deferred = append(c.deferred, f)
		}
		return nil
	})
}

// State returns the lifecycle state.
func (c *Context) State() State {
	return State(c.state.Load())
}

// Version returns the version and profile the context was created
// with.
func (c *Context) Version() Attempt {
	return c.version
}

// Device returns the device the context was created on.
func (c *Context) Device() *Device {
	return c.dev
}

// MakeCurrent binds the context and s on the render thread. A nil s
// binds no surface, which needs the surfaceless capability. Failures
// carry the platform error code and leave the previous binding in place.
func (c *Context) MakeCurrent(s *Surface) error {
	const op = "MakeCurrent"
	return c.do(op, func() error {
		var ds driver.Surface
		if s != nil {
			if s.ctx != c || s.drv == nil {
				return errorf(KindMakeCurrent, op, "surface released or owned by another context")
			}
			ds = s.drv
		} else if !c.dev.drv.Has(driver.FeatureSurfaceless) {
			return errorf(KindMakeCurrent, op, "surfaceless contexts not supported")
		}
		if err := c.drv.MakeCurrent(ds); err != nil {
			return newError(KindMakeCurrent, op, err)
		}
		c.surface = s
		c.state.Store(uint32(StateCurrent))
		c.loadExtensions()
		for _, f := range c.deferred {
			f(c.f)
		}
		c.deferred = nil
		return nil
	})
}

// loadExtensions records the GL extensions once a context is current for
// the first time.
func (c *Context) loadExtensions() {
	c.extMu.Lock()
	defer c.extMu.Unlock()
	if c.exts == nil {
		c.exts = gl.Extensions(c.f)
	}
}

// ReleaseCurrent unbinds the context from its render thread.
func (c *Context) ReleaseCurrent() error {
	const op = "ReleaseCurrent"
	return c.do(op, func() error {
		if err := c.drv.ReleaseCurrent(); err != nil {
			return newError(KindMakeCurrent, op, err)
		}
		c.surface = nil
		c.state.Store(uint32(StateContextCreated))
		return nil
	})
}

// Destroy releases the context and stops its render thread. Framebuffers,
// blitters and imported buffers of the context become unusable. Calling
// Destroy again returns an error of kind KindInvalidState.
func (c *Context) Destroy() error {
	const op = "Destroy"
	c.mu.Lock()
	defer c.mu.Unlock()
	switch st := c.State(); st {
	case StateContextCreated, StateCurrent:
	default:
		return errorf(KindInvalidState, op, "context is %s", st)
	}
	c.run(func() {
		if err := c.drv.ReleaseCurrent(); err != nil {
			c.log.Warn("release current context", "error", err)
		}
		c.drv.Release()
		c.surface = nil
		c.deferred = nil
	})
	close(c.work)
	<-c.stopped
	c.state.Store(uint32(StateDestroyed))
	c.dev.forget(c)
	c.log.Debug("context destroyed")
	return nil
}

// QueryExtensionSupport reports support for a display extension, a GL
// extension of the context or a capability key of
// Device.QueryExtensionSupport. GL extensions are known once the context
// has been made current.
func (c *Context) QueryExtensionSupport(name string) bool {
	if c.dev == nil {
		return false
	}
	if c.dev.QueryExtensionSupport(name) {
		return true
	}
	c.extMu.Lock()
	defer c.extMu.Unlock()
	return slices.Contains(c.exts, name)
}

// Resources counts the live objects of the context. The boolean result
// is false for backends that do not track them. A destroyed context
// reports zero counts, since Destroy deleted its objects.
func (c *Context) Resources() (Resources, bool) {
	if c.State() == StateDestroyed {
		_, ok := c.drv.(driver.ResourceCounter)
		return Resources{}, ok
	}
	var res Resources
	var ok bool
	c.do("Resources", func() error {
		var rc driver.ResourceCounter
		if rc, ok = c.drv.(driver.ResourceCounter); ok {
			res = rc.Resources()
		}
		return nil
	})
	return res, ok
}

// Info describes the implementation behind a current context.
type Info struct {
	Vendor, Renderer, Version string
	ShadingLanguage           string
	Extensions                []string
}

// Info queries the GL strings of the context.
func (c *Context) Info() (Info, error) {
	var info Info
	err := c.doCurrent("Info", func(f gl.Functions) error {
		info = Info{
			Vendor:          f.GetString(gl.VENDOR),
			Renderer:        f.GetString(gl.RENDERER),
			Version:         f.GetString(gl.VERSION),
			ShadingLanguage: f.GetString(gl.SHADING_LANGUAGE_VERSION),
			Extensions:      gl.Extensions(f),
		}
		return nil
	})
	return info, err
}

// NewPbufferSurface creates an off-screen surface.
func (c *Context) NewPbufferSurface(width, height int) (*Surface, error) {
	const op = "NewPbufferSurface"
	if width <= 0 || height <= 0 {
		return nil, errorf(KindInvalidArgument, op, "size %dx%d", width, height)
	}
	var s *Surface
	err := c.do(op, func() error {
		ds, err := c.drv.NewPbufferSurface(width, height)
		if err != nil {
			return newError(KindContextCreation, op, err)
		}
		s = &Surface{ctx: c, drv: ds, size: ds.Size()}
		return nil
	})
	return s, err
}

// NewWindowSurface creates a surface presenting into win. Only windowed
// devices create window surfaces.
func (c *Context) NewWindowSurface(win NativeWindow) (*Surface, error) {
	const op = "NewWindowSurface"
	if c.dev != nil && c.dev.mode != ModeWindowed {
		return nil, errorf(KindUnsupportedMode, op, "window surface on a %s device", c.dev.mode)
	}
	var s *Surface
	err := c.do(op, func() error {
		ds, err := c.drv.NewWindowSurface(uintptr(win))
		if err != nil {
			kind := KindContextCreation
			if errors.Is(err, driver.ErrUnsupportedMode) {
				kind = KindUnsupportedMode
			}
			return newError(kind, op, err)
		}
		s = &Surface{ctx: c, drv: ds, size: ds.Size()}
		return nil
	})
	return s, err
}

// Size returns the size of the surface at creation.
func (s *Surface) Size() image.Point {
	return s.size
}

// Release destroys the surface. A current surface is unbound first.
// Calling it again does nothing.
func (s *Surface) Release() {
	c := s.ctx
	c.do("Surface.Release", func() error {
		if s.drv == nil {
			return nil
		}
		if c.surface == s {
			c.surface = nil
		}
		s.drv.Release()
		s.drv = nil
		return nil
	})
}

// NewTexture allocates an RGBA texture of the given size. The texture
// belongs to the caller until it is handed to a framebuffer.
func (c *Context) NewTexture(width, height int) (OwnedTexture, error) {
	const op = "NewTexture"
	if err := checkSize(op, width, height); err != nil {
		return 0, err
	}
	var tex gl.Texture
	err := c.doCurrent(op, func(f gl.Functions) error {
		var err error
		tex, err = c.newTexture(op, width, height)
		return err
	})
	return OwnedTexture(tex.V), err
}

func (c *Context) newTexture(op string, width, height int) (gl.Texture, error) {
	f := c.f
	tex := f.CreateTexture()
	if !tex.Valid() {
		return gl.Texture{}, glFailure(f, KindDraw, op, "glGenTextures")
	}
	f.BindTexture(gl.TEXTURE_2D, tex)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	f.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	internal := gl.Enum(gl.RGBA8)
	if !c.caps.blit {
		// OpenGL ES 2.0 has no sized formats.
		internal = gl.RGBA
	}
	f.TexImage2D(gl.TEXTURE_2D, 0, internal, width, height, gl.RGBA, gl.UNSIGNED_BYTE)
	f.BindTexture(gl.TEXTURE_2D, gl.Texture{})
	if err := glError(f, KindDraw, op); err != nil {
		f.DeleteTexture(tex)
		return gl.Texture{}, err
	}
	return tex, nil
}

// DeleteTexture deletes a texture not owned by a framebuffer.
func (c *Context) DeleteTexture(t Texture) {
	c.release("DeleteTexture", func(f gl.Functions) {
		f.DeleteTexture(glTexture(t))
	})
}

func glTexture(t Texture) gl.Texture {
	if t == nil {
		return gl.Texture{}
	}
	return gl.Texture{V: uint(t.Name())}
}

// maxSize bounds framebuffer sizes to what the texture coordinates of the
// backends address exactly.
const maxSize = 16384

func checkSize(op string, width, height int) error {
	if width <= 0 || height <= 0 || width > maxSize || height > maxSize {
		return errorf(KindInvalidArgument, op, "invalid size %dx%d", width, height)
	}
	return nil
}
