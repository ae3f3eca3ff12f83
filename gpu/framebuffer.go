// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"image"
	"image/color"

	"gioui.org/vmdisplay/internal/gl"
)

// Framebuffer is a render target over a texture, or over the current
// surface for the default framebuffer. Pixels are addressed in storage
// order: row 0 is the first row in memory, which GL places at y = 0.
type Framebuffer struct {
	ctx    *Context
	width  int
	height int
	// tex is nil for the default framebuffer.
	tex Texture
	fbo gl.Framebuffer
	// imported is the buffer the texture views, if any.
	imported *DmaBuf
	released bool
}

// NewDefaultFramebuffer returns the framebuffer of the surface the
// context is current with. A surfaceless context has none, and the size
// must fit the surface.
func (c *Context) NewDefaultFramebuffer(width, height int) (*Framebuffer, error) {
	const op = "NewDefaultFramebuffer"
	if err := checkSize(op, width, height); err != nil {
		return nil, err
	}
	var fb *Framebuffer
	err := c.doCurrent(op, func(f gl.Functions) error {
		s := c.surface
		if s == nil {
			return errorf(KindInvalidState, op, "context is current without a surface")
		}
		if sz := s.Size(); width > sz.X || height > sz.Y {
			return errorf(KindInvalidArgument, op, "%dx%d exceeds the %dx%d surface", width, height, sz.X, sz.Y)
		}
		fb = &Framebuffer{ctx: c, width: width, height: height}
		return nil
	})
	return fb, err
}

// NewTextureFramebuffer returns a framebuffer rendering into tex. An
// OwnedTexture is deleted by Release; the caller keeps ownership if
// setup fails.
func (c *Context) NewTextureFramebuffer(width, height int, tex Texture) (*Framebuffer, error) {
	const op = "NewTextureFramebuffer"
	if err := checkSize(op, width, height); err != nil {
		return nil, err
	}
	if tex == nil || tex.Name() == 0 {
		return nil, errorf(KindInvalidArgument, op, "no texture")
	}
	var fb *Framebuffer
	err := c.doCurrent(op, func(f gl.Functions) error {
		var err error
		fb, err = c.setupFramebuffer(op, width, height, tex)
		return err
	})
	return fb, err
}

// NewFramebuffer allocates a texture and a framebuffer rendering into it.
func (c *Context) NewFramebuffer(width, height int) (*Framebuffer, error) {
	const op = "NewFramebuffer"
	if err := checkSize(op, width, height); err != nil {
		return nil, err
	}
	var fb *Framebuffer
	err := c.doCurrent(op, func(f gl.Functions) error {
		tex, err := c.newTexture(op, width, height)
		if err != nil {
			return err
		}
		fb, err = c.setupFramebuffer(op, width, height, OwnedTexture(tex.V))
		if err != nil {
			f.DeleteTexture(tex)
		}
		return err
	})
	return fb, err
}

// setupFramebuffer attaches tex to a new framebuffer object. Must be
// called on the render thread.
func (c *Context) setupFramebuffer(op string, width, height int, tex Texture) (*Framebuffer, error) {
	f := c.f
	fbo := f.CreateFramebuffer()
	if !fbo.Valid() {
		return nil, glFailure(f, KindDraw, op, "glGenFramebuffers")
	}
	f.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	f.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, glTexture(tex), 0)
	status := f.CheckFramebufferStatus(gl.FRAMEBUFFER)
	f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
	if err := glError(f, KindDraw, op); err != nil {
		f.DeleteFramebuffer(fbo)
		return nil, err
	}
	if status != gl.FRAMEBUFFER_COMPLETE {
		f.DeleteFramebuffer(fbo)
		e := errorf(KindDraw, op, "framebuffer incomplete: 0x%x", uint(status))
		e.Code = int(status)
		return nil, e
	}
	return &Framebuffer{ctx: c, width: width, height: height, tex: tex, fbo: fbo}, nil
}

// Size returns the size given at setup.
func (fb *Framebuffer) Size() image.Point {
	return image.Pt(fb.width, fb.height)
}

// Bounds returns the rectangle from the origin to Size.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rectangle{Max: fb.Size()}
}

// Texture returns the color texture, or nil for the default
// framebuffer.
func (fb *Framebuffer) Texture() Texture {
	return fb.tex
}

// Owned reports whether Release deletes the texture.
func (fb *Framebuffer) Owned() bool {
	return fb.tex != nil && fb.tex.owned()
}

// Context returns the context the framebuffer belongs to.
func (fb *Framebuffer) Context() *Context {
	return fb.ctx
}

// Release deletes the framebuffer object and an owned texture. Calling it
// again, or after the context is destroyed, does nothing.
func (fb *Framebuffer) Release() {
	fb.ctx.release("Framebuffer.Release", fb.release)
}

// release must run on the render thread.
func (fb *Framebuffer) release(f gl.Functions) {
	if fb.released {
		return
	}
	fb.released = true
	if fb.fbo.Valid() {
		f.DeleteFramebuffer(fb.fbo)
	}
	if fb.Owned() {
		f.DeleteTexture(glTexture(fb.tex))
	}
	if b := fb.imported; b != nil && b.fb == fb {
		b.fb = nil
	}
}

// check validates that fb can be used in c. Must be called on the render
// thread.
func (fb *Framebuffer) check(c *Context, op string) error {
	switch {
	case fb == nil:
		return errorf(KindInvalidArgument, op, "nil framebuffer")
	case fb.ctx != c:
		return errorf(KindInvalidArgument, op, "framebuffer of another context")
	case fb.released:
		return errorf(KindInvalidState, op, "framebuffer released")
	case fb.tex == nil && c.surface == nil:
		return errorf(KindInvalidState, op, "default framebuffer without a surface")
	}
	return nil
}

// bind makes fb the framebuffer target.
func (fb *Framebuffer) bind(f gl.Functions, target gl.Enum) {
	f.BindFramebuffer(target, fb.fbo)
}

// ReadPixels copies the framebuffer into dst, which must have the size
// of the framebuffer. Row 0 of the framebuffer lands in the first row of
// dst.
func (fb *Framebuffer) ReadPixels(dst *image.RGBA) error {
	const op = "ReadPixels"
	if dst == nil || dst.Rect.Size() != fb.Size() {
		return errorf(KindReadback, op, "destination size differs from %v", fb.Size())
	}
	return fb.read(op, dst, fb.Bounds(), dst.Rect.Min)
}

// ReadRect copies the rectangle r of the framebuffer into the same
// rectangle of dst. r must be non-empty and inside both the framebuffer
// and dst.
func (fb *Framebuffer) ReadRect(dst *image.RGBA, r image.Rectangle) error {
	const op = "ReadRect"
	switch {
	case dst == nil:
		return errorf(KindReadback, op, "nil destination")
	case r.Empty():
		return errorf(KindReadback, op, "empty rectangle %v", r)
	case !r.In(fb.Bounds()):
		return errorf(KindReadback, op, "rectangle %v outside framebuffer %v", r, fb.Bounds())
	case !r.In(dst.Rect):
		return errorf(KindReadback, op, "rectangle %v outside destination %v", r, dst.Rect)
	}
	return fb.read(op, dst, r, r.Min)
}

// read copies r to dst at dp after waiting for the GPU to finish the
// commands submitted so far.
func (fb *Framebuffer) read(op string, dst *image.RGBA, r image.Rectangle, dp image.Point) error {
	c := fb.ctx
	return c.doCurrent(op, func(f gl.Functions) error {
		if err := fb.check(c, op); err != nil {
			return err
		}
		if err := c.finish(op); err != nil {
			return err
		}
		w, h := r.Dx(), r.Dy()
		// OpenGL ES 2.0 lacks PACK_ROW_LENGTH; read tightly packed rows.
		pix := make([]byte, w*h*4)
		fb.bind(f, gl.FRAMEBUFFER)
		f.PixelStorei(gl.PACK_ALIGNMENT, 4)
		f.ReadPixels(r.Min.X, r.Min.Y, w, h, gl.RGBA, gl.UNSIGNED_BYTE, pix)
		f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
		if err := glError(f, KindReadback, op); err != nil {
			return err
		}
		for y := 0; y < h; y++ {
			o := dst.PixOffset(dp.X, dp.Y+y)
			copy(dst.Pix[o:o+w*4], pix[y*w*4:(y+1)*w*4])
		}
		return nil
	})
}

// finish waits for the submitted commands with a fence, or glFinish
// where fences are missing. Must be called on the render thread.
func (c *Context) finish(op string) error {
	f := c.f
	if !c.caps.fenceSync {
		f.Finish()
		return nil
	}
	s := f.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if !s.Valid() {
		return glFailure(f, KindReadback, op, "glFenceSync")
	}
	defer f.DeleteSync(s)
	if f.ClientWaitSync(s, gl.SYNC_FLUSH_COMMANDS_BIT, gl.TIMEOUT_IGNORED) == gl.WAIT_FAILED {
		return glFailure(f, KindReadback, op, "glClientWaitSync")
	}
	return nil
}

// Upload replaces the texture contents with img, which must have the
// size of the framebuffer. The first row of img becomes row 0.
func (fb *Framebuffer) Upload(img *image.RGBA) error {
	const op = "Upload"
	if img == nil || img.Rect.Size() != fb.Size() {
		return errorf(KindInvalidArgument, op, "image size differs from %v", fb.Size())
	}
	c := fb.ctx
	return c.doCurrent(op, func(f gl.Functions) error {
		if err := fb.check(c, op); err != nil {
			return err
		}
		if fb.tex == nil {
			return errorf(KindInvalidArgument, op, "default framebuffer has no texture")
		}
		pix := img.Pix
		if img.Stride != fb.width*4 {
			pix = make([]byte, fb.width*fb.height*4)
			for y := 0; y < fb.height; y++ {
				o := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
				copy(pix[y*fb.width*4:], img.Pix[o:o+fb.width*4])
			}
		}
		f.BindTexture(gl.TEXTURE_2D, glTexture(fb.tex))
		f.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
		f.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, fb.width, fb.height, gl.RGBA, gl.UNSIGNED_BYTE, pix)
		f.BindTexture(gl.TEXTURE_2D, gl.Texture{})
		return glError(f, KindDraw, op)
	})
}

// Clear fills the framebuffer with col.
func (fb *Framebuffer) Clear(col color.RGBA) error {
	const op = "Clear"
	c := fb.ctx
	return c.doCurrent(op, func(f gl.Functions) error {
		if err := fb.check(c, op); err != nil {
			return err
		}
		fb.bind(f, gl.FRAMEBUFFER)
		f.ClearColor(float32(col.R)/0xff, float32(col.G)/0xff, float32(col.B)/0xff, float32(col.A)/0xff)
		f.Clear(gl.COLOR_BUFFER_BIT)
		f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
		return glError(f, KindDraw, op)
	})
}

// CopyTo stretches the framebuffer over dst with a framebuffer blit,
// mirroring it vertically if flip is set. It needs no shader program but
// is unavailable on OpenGL ES 2.0 contexts.
func (fb *Framebuffer) CopyTo(dst *Framebuffer, flip bool) error {
	const op = "CopyTo"
	c := fb.ctx
	return c.doCurrent(op, func(f gl.Functions) error {
		if err := fb.check(c, op); err != nil {
			return err
		}
		if err := dst.check(c, op); err != nil {
			return err
		}
		if fb == dst {
			return errorf(KindInvalidArgument, op, "source and destination are the same framebuffer")
		}
		if !c.caps.blit {
			return errorf(KindDraw, op, "framebuffer blits need OpenGL ES 3.0 (context is %s)", c.version.Version)
		}
		y0, y1 := 0, fb.height
		if flip {
			y0, y1 = y1, y0
		}
		fb.bind(f, gl.READ_FRAMEBUFFER)
		dst.bind(f, gl.DRAW_FRAMEBUFFER)
		f.BlitFramebuffer(0, y0, fb.width, y1, 0, 0, dst.width, dst.height, gl.COLOR_BUFFER_BIT, gl.LINEAR)
		f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
		return glError(f, KindDraw, op)
	})
}
