// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

// Package headless implements an offscreen compositor that overlays
// guest scanouts into a target framebuffer.
package headless

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/sync/errgroup"

	"gioui.org/vmdisplay/dmabuf"
	"gioui.org/vmdisplay/gpu"
	"gioui.org/vmdisplay/internal/drm"
	"gioui.org/vmdisplay/internal/log"
)

// Compositor blends scanouts into an owned target framebuffer.
type Compositor struct {
	size     image.Point
	dev      *gpu.Device
	ctx      *gpu.Context
	blitter  *gpu.Blitter
	target   *gpu.Framebuffer
	scanouts []*scanout
	// out is the exported target, or nil.
	out        *gpu.DmaBuf
	background color.RGBA
	// importTexture imports scanouts.
	importTexture func(buf *gpu.DmaBuf) (*gpu.PendingFramebuffer, error)
}

// scanout is a guest buffer placed on the target. Buffers the context
// cannot import are copied through the CPU on every frame.
type scanout struct {
	buf     *gpu.DmaBuf
	pending *gpu.PendingFramebuffer
	fb      *gpu.Framebuffer
	cpu     bool
	x, y    int
	sx, sy  float64
}

// stubNode stands in for a render node when none exists. The software
// backend never touches its node.
const stubNode = "/dev/null"

var logger = log.With("headless")

var (
	newContextPrimary  = newNativeContext
	newContextFallback = newSoftwareContext
)

func newContext(width, height int, opts []gpu.Option) (*gpu.Device, *gpu.Context, error) {
	funcs := []func(w, h int, opts []gpu.Option) (*gpu.Device, *gpu.Context, error){newContextPrimary, newContextFallback}
	var firstErr error
	for _, f := range funcs {
		if f == nil {
			continue
		}
		d, c, err := f(width, height, opts)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return d, c, nil
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return nil, nil, errors.New("headless: no available GPU backends")
}

// newNativeContext opens the first render node the native backend can
// drive. Options may override the backend.
func newNativeContext(width, height int, opts []gpu.Option) (*gpu.Device, *gpu.Context, error) {
	nodes := drm.RenderNodes()
	if len(nodes) == 0 {
		return nil, nil, errors.New("headless: no render nodes")
	}
	opts = append([]gpu.Option{gpu.WithBackend(gpu.BackendNative)}, opts...)
	var errs []error
	for _, node := range nodes {
		d, c, err := openContext(node, width, height, opts)
		if err == nil {
			return d, c, nil
		}
		logger.Debug("render node unusable", "node", node, "error", err)
		errs = append(errs, err)
	}
	return nil, nil, errors.Join(errs...)
}

func newSoftwareContext(width, height int, opts []gpu.Option) (*gpu.Device, *gpu.Context, error) {
	node := stubNode
	if nodes := drm.RenderNodes(); len(nodes) > 0 {
		node = nodes[0]
	}
	opts = append(opts[:len(opts):len(opts)], gpu.WithBackend(gpu.BackendSoftware))
	return openContext(node, width, height, opts)
}

func openContext(node string, width, height int, opts []gpu.Option) (*gpu.Device, *gpu.Context, error) {
	d, err := gpu.InitDevice(node, gpu.ModeHeadless, opts...)
	if err != nil {
		return nil, nil, err
	}
	c, err := d.CreateContext(gpu.ContextOptions{})
	if err != nil {
		d.Release()
		return nil, nil, err
	}
	var s *gpu.Surface
	if !d.QueryExtensionSupport("surfaceless") {
		s, err = c.NewPbufferSurface(width, height)
		if err != nil {
			d.Release()
			return nil, nil, err
		}
	}
	if err := c.MakeCurrent(s); err != nil {
		d.Release()
		return nil, nil, err
	}
	return d, c, nil
}

// NewCompositor creates a compositor with a width by height target. The
// native backend is tried on every render node before the software
// backend.
func NewCompositor(width, height int, opts ...gpu.Option) (*Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("headless: invalid size %dx%d", width, height)
	}
	dev, ctx, err := newContext(width, height, opts)
	if err != nil {
		return nil, err
	}
	c := &Compositor{
		size: image.Pt(width, height),
		dev:  dev,
		ctx:  ctx,

		importTexture: ctx.ImportAsTexture,
	}
	if err := c.init(); err != nil {
		c.Release()
		return nil, err
	}
	logger.Info("compositor created", "size", c.size, "backend", dev.Backend(), "version", ctx.Version().Version)
	return c, nil
}

func (c *Compositor) init() error {
	b, err := gpu.NewBlitter(c.ctx, gpu.DefaultShaders())
	if err != nil {
		return err
	}
	c.blitter = b
	t, err := c.ctx.NewFramebuffer(c.size.X, c.size.Y)
	if err != nil {
		return err
	}
	c.target = t
	return nil
}

// Size returns the size of the target.
func (c *Compositor) Size() image.Point {
	return c.size
}

// Backend names the backend in use.
func (c *Compositor) Backend() string {
	return c.dev.Backend()
}

// Context returns the context the compositor renders with.
func (c *Compositor) Context() *gpu.Context {
	return c.ctx
}

// SetBackground sets the color the target is cleared to.
func (c *Compositor) SetBackground(col color.RGBA) {
	c.background = col
}

// AddScanout places buf at (x, y) of the target, scaled by scaleX and
// scaleY. Later scanouts are blended over earlier ones. A buffer the
// context cannot import is read through its linear mapping instead.
func (c *Compositor) AddScanout(buf *gpu.DmaBuf, x, y int, scaleX, scaleY float64) error {
	s := &scanout{buf: buf, x: x, y: y, sx: scaleX, sy: scaleY}
	p, err := c.importTexture(buf)
	switch {
	case err == nil:
		s.pending = p
	case errors.Is(err, gpu.ErrImport):
		if _, rerr := dmabuf.ReadLinear(&buf.Buffer); rerr != nil {
			return errors.Join(err, rerr)
		}
		fb, ferr := c.ctx.NewFramebuffer(buf.Width, buf.Height)
		if ferr != nil {
			return ferr
		}
		logger.Warn("scanout composited on the CPU", "buffer", buf.String(), "error", err)
		s.fb, s.cpu = fb, true
	default:
		return err
	}
	c.scanouts = append(c.scanouts, s)
	return nil
}

// RemoveScanout releases the objects of buf and removes it from the
// target. The buffer itself stays open.
func (c *Compositor) RemoveScanout(buf *gpu.DmaBuf) {
	for i, s := range c.scanouts {
		if s.buf == buf {
			c.releaseScanout(s)
			c.scanouts = append(c.scanouts[:i], c.scanouts[i+1:]...)
			return
		}
	}
}

func (c *Compositor) releaseScanout(s *scanout) {
	if s.cpu {
		s.fb.Release()
		return
	}
	c.ctx.ReleaseDmaBuf(s.buf)
}

// Frame waits for the fences of every scanout, then composites them
// over the background. If the target is exported, a fence signaling the
// end of the composition is attached to it.
func (c *Compositor) Frame(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range c.scanouts {
		g.Go(func() error {
			if s.pending != nil {
				fb, err := s.pending.Wait(gctx)
				if err != nil {
					return err
				}
				s.fb, s.pending = fb, nil
				return nil
			}
			return c.ctx.WaitFence(gctx, s.buf)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := c.target.Clear(c.background); err != nil {
		return err
	}
	for _, s := range c.scanouts {
		if s.cpu {
			img, err := dmabuf.ReadLinear(&s.buf.Buffer)
			if err != nil {
				return err
			}
			if err := s.fb.Upload(img); err != nil {
				return err
			}
		}
		// Row 0 of the target is its top row.
		flip := !s.buf.Y0Top
		if err := c.blitter.Blend(c.target, s.fb, flip, s.x, s.y, s.sx, s.sy); err != nil {
			return err
		}
	}
	if c.out != nil {
		return c.ctx.AttachFence(c.out)
	}
	return nil
}

// Export returns the target as a DMA-BUF with row 0 at the top. The
// buffer and its descriptors stay owned by the compositor.
func (c *Compositor) Export() (*gpu.DmaBuf, error) {
	if c.out != nil {
		return c.out, nil
	}
	out, err := c.ctx.ExportTexture(c.target)
	if err != nil {
		return nil, err
	}
	out.Y0Top = true
	c.out = out
	return out, nil
}

// Screenshot transfers the target content at origin img.Rect.Min to img.
func (c *Compositor) Screenshot(img *image.RGBA) error {
	r := img.Bounds().Intersect(c.target.Bounds())
	if r.Empty() {
		return fmt.Errorf("headless: screenshot bounds %v outside %v", img.Bounds(), c.target.Bounds())
	}
	return c.target.ReadRect(img, r)
}

// Release frees the compositor's GPU objects and closes the device.
func (c *Compositor) Release() {
	for _, s := range c.scanouts {
		c.releaseScanout(s)
	}
	c.scanouts = nil
	if c.out != nil {
		c.ctx.ReleaseDmaBuf(c.out)
		if err := c.out.Close(); err != nil {
			logger.Warn("close exported target", "error", err)
		}
		c.out = nil
	}
	if c.blitter != nil {
		c.blitter.Release()
		c.blitter = nil
	}
	if c.target != nil {
		c.target.Release()
		c.target = nil
	}
	if c.ctx != nil {
		c.ctx.Destroy()
		c.ctx = nil
	}
	if c.dev != nil {
		c.dev.Release()
		c.dev = nil
	}
}
