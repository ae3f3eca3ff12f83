// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"context"
	"time"

	"gioui.org/vmdisplay/dmabuf"
	"gioui.org/vmdisplay/gpu/internal/driver"
	"gioui.org/vmdisplay/internal/gl"
)

// DmaBuf is a DMA-BUF descriptor together with the GPU objects a context
// created for it. The descriptor's FD is borrowed and never closed by
// the context; FenceFD is closed once waited on.
type DmaBuf struct {
	dmabuf.Buffer

	ctx *Context
	// tex is the imported texture.
	tex gl.Texture
	// fb renders into tex.
	fb *Framebuffer
	// sync is a fence inserted by CreateSync and not yet attached.
	sync driver.Fence
}

// PendingFramebuffer is an imported framebuffer whose producer may still
// be writing it.
type PendingFramebuffer struct {
	ctx *Context
	buf *DmaBuf
	fb  *Framebuffer
}

// NewDmaBuf wraps a copy of b.
func NewDmaBuf(b *dmabuf.Buffer) *DmaBuf {
	return &DmaBuf{Buffer: *b}
}

// Framebuffer returns the framebuffer of an imported buffer without
// waiting for its fence, or nil.
func (b *DmaBuf) Framebuffer() *Framebuffer {
	return b.fb
}

// ImportAsTexture creates a texture over the memory of buf and a
// framebuffer borrowing it. The framebuffer is handed out by Wait once
// the producer's fence signaled. Unsupported formats and modifiers fail
// with an error of kind KindImport without leaving objects behind.
func (c *Context) ImportAsTexture(buf *DmaBuf) (*PendingFramebuffer, error) {
	const op = "ImportAsTexture"
	if buf == nil {
		return nil, errorf(KindInvalidArgument, op, "nil buffer")
	}
	var fb *Framebuffer
	err := c.doCurrent(op, func(f gl.Functions) error {
		if err := c.owns(op, buf); err != nil {
			return err
		}
		if buf.tex.Valid() {
			return errorf(KindInvalidState, op, "buffer already imported")
		}
		if err := buf.Validate(); err != nil {
			return newError(KindImport, op, err)
		}
		drv := c.dev.drv
		if !drv.Has(driver.FeatureDmabufImport) {
			return errorf(KindImport, op, "%s backend cannot import dmabufs", drv.Backend())
		}
		if m := buf.Modifier; m != dmabuf.ModInvalid && m != dmabuf.ModLinear && !drv.Has(driver.FeatureDmabufModifiers) {
			return errorf(KindImport, op, "modifier %s needs EGL_EXT_image_dma_buf_import_modifiers", m)
		}
		tex, err := c.drv.ImportTexture(&buf.Buffer)
		if err != nil {
			return newError(KindImport, op, err)
		}
		fb, err = c.setupFramebuffer(op, buf.Width, buf.Height, BorrowedTexture(tex.V))
		if err != nil {
			f.DeleteTexture(tex)
			return newError(KindImport, op, err)
		}
		fb.imported = buf
		buf.ctx, buf.tex, buf.fb = c, tex, fb
		return nil
	})
	if err != nil {
		c.logFailure(op, &buf.Buffer, err)
		return nil, err
	}
	return &PendingFramebuffer{ctx: c, buf: buf, fb: fb}, nil
}

// Wait blocks until the producer's fence, if any, signals and returns the
// framebuffer. The fence is closed.
func (p *PendingFramebuffer) Wait(ctx context.Context) (*Framebuffer, error) {
	if err := p.ctx.WaitFence(ctx, p.buf); err != nil {
		return nil, err
	}
	return p.fb, nil
}

// ExportTexture returns a DMA-BUF of the texture of fb. The returned
// descriptor's FD belongs to the caller. Submitted rendering is flushed
// first; use AttachFence to let the consumer wait for it.
func (c *Context) ExportTexture(fb *Framebuffer) (*DmaBuf, error) {
	const op = "ExportTexture"
	var out *DmaBuf
	err := c.doCurrent(op, func(f gl.Functions) error {
		if err := fb.check(c, op); err != nil {
			return err
		}
		if fb.tex == nil {
			return errorf(KindExport, op, "default framebuffer has no texture")
		}
		drv := c.dev.drv
		if !drv.Has(driver.FeatureDmabufExport) {
			return errorf(KindExport, op, "%s backend cannot export dmabufs", drv.Backend())
		}
		f.Flush()
		b, err := c.drv.ExportTexture(glTexture(fb.tex))
		if err != nil {
			return newError(KindExport, op, err)
		}
		b.Width, b.Height = fb.width, fb.height
		out = &DmaBuf{Buffer: *b, ctx: c}
		return nil
	})
	if err != nil {
		c.logFailure(op, nil, err)
		return nil, err
	}
	return out, nil
}

// CreateSync inserts a native fence after the commands submitted so far
// and flushes them. A previous fence not yet attached is replaced.
func (c *Context) CreateSync(buf *DmaBuf) error {
	const op = "CreateSync"
	return c.doCurrent(op, func(f gl.Functions) error {
		if err := c.owns(op, buf); err != nil {
			return err
		}
		return c.createSync(op, buf)
	})
}

func (c *Context) createSync(op string, buf *DmaBuf) error {
	if !c.dev.drv.Has(driver.FeatureNativeFence) {
		return errorf(KindFence, op, "native fences not supported")
	}
	s, err := c.drv.NewFence()
	if err != nil {
		return newError(KindFence, op, err)
	}
	if buf.sync != nil {
		buf.sync.Release()
	}
	buf.ctx, buf.sync = c, s
	return nil
}

// AttachFence turns the fence created by CreateSync, or a new one, into
// a sync file stored in buf.FenceFD. A fence attached before is closed.
func (c *Context) AttachFence(buf *DmaBuf) error {
	const op = "AttachFence"
	return c.doCurrent(op, func(f gl.Functions) error {
		if err := c.owns(op, buf); err != nil {
			return err
		}
		if buf.sync == nil {
			if err := c.createSync(op, buf); err != nil {
				return err
			}
		}
		fd, err := buf.sync.FD()
		buf.sync.Release()
		buf.sync = nil
		if err != nil {
			return newError(KindFence, op, err)
		}
		if err := buf.CloseFence(); err != nil {
			c.log.Warn("close replaced fence", "error", err)
		}
		buf.FenceFD = fd
		return nil
	})
}

// WaitFence blocks until the fence of buf signals or ctx is done, then
// closes the fence. Buffers without a fence return at once. The fence is
// kept if the wait fails, so it can be retried.
func (c *Context) WaitFence(ctx context.Context, buf *DmaBuf) error {
	const op = "WaitFence"
	if st := c.State(); st != StateContextCreated && st != StateCurrent {
		return errorf(KindInvalidState, op, "context is %s", st)
	}
	if buf == nil || !buf.HasFence() {
		return nil
	}
	if c.fenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fenceTimeout)
		defer cancel()
	}
	start := time.Now()
	if err := dmabuf.WaitFence(ctx, buf.FenceFD); err != nil {
		return newError(KindFence, op, err)
	}
	c.log.Debug("fence signaled", "fd", buf.FenceFD, "wait", time.Since(start))
	if err := buf.CloseFence(); err != nil {
		return newError(KindFence, op, err)
	}
	return nil
}

// ReleaseDmaBuf deletes the texture and framebuffer of an imported buffer
// and drops a fence not yet attached. buf.FD stays open.
func (c *Context) ReleaseDmaBuf(buf *DmaBuf) {
	if buf == nil {
		return
	}
	if c.State() == StateDestroyed {
		// Destroy freed the objects already.
		if buf.ctx == c {
			buf.detach()
		}
		return
	}
	c.release("ReleaseDmaBuf", func(f gl.Functions) {
		if buf.ctx != c {
			return
		}
		if buf.fb != nil {
			buf.fb.release(f)
		}
		if buf.tex.Valid() {
			f.DeleteTexture(buf.tex)
			buf.tex = gl.Texture{}
		}
		if buf.sync != nil {
			buf.sync.Release()
			buf.sync = nil
		}
		buf.ctx = nil
	})
}

// owns checks that buf is not tied to another live context. A buffer of
// a destroyed context is free again.
func (c *Context) owns(op string, buf *DmaBuf) error {
	switch {
	case buf == nil:
		return errorf(KindInvalidArgument, op, "nil buffer")
	case buf.ctx != nil && buf.ctx != c && buf.ctx.State() == StateDestroyed:
		buf.detach()
	case buf.ctx != nil && buf.ctx != c:
		return errorf(KindInvalidArgument, op, "buffer belongs to another context")
	}
	return nil
}

// detach forgets the objects of a destroyed context.
func (b *DmaBuf) detach() {
	if b.fb != nil {
		b.fb.released = true
	}
	b.ctx, b.tex, b.fb, b.sync = nil, gl.Texture{}, nil, nil
}

func (c *Context) logFailure(op string, b *dmabuf.Buffer, err error) {
	if e, ok := err.(*Error); ok && e.Kind != KindImport && e.Kind != KindExport {
		return
	}
	if b != nil {
		c.log.Warn(op+" failed", "buffer", b.String(), "error", err)
		return
	}
	c.log.Warn(op+" failed", "error", err)
}
