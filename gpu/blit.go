// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"encoding/binary"
	"math"
	"sort"

	"gioui.org/shader"
	"gioui.org/vmdisplay/internal/gl"
)

// Shaders is the program a Blitter draws with. The vertex stage takes
// the quad corner in normalized device coordinates at input location 0
// and its texture coordinate at location 1. The fragment stage outputs
// the texel of its first texture binding at that coordinate.
type Shaders struct {
	Vertex   shader.Sources
	Fragment shader.Sources
}

// Blitter copies and blends framebuffers of one context with a shader
// program.
type Blitter struct {
	ctx  *Context
	prog gl.Program
	tex  gl.Uniform
	unit int
	vbo  gl.Buffer
	vao  gl.VertexArray
}

// quadVertices holds two triangle strips covering the viewport, each
// vertex a position and a texture coordinate. The second strip samples
// the texture upside down.
var quadVertices = []float32{
	-1, -1, 0, 0,
	+1, -1, 1, 0,
	-1, +1, 0, 1,
	+1, +1, 1, 1,

	-1, -1, 0, 1,
	+1, -1, 1, 1,
	-1, +1, 0, 0,
	+1, +1, 1, 0,
}

const (
	vertexStride = 4 * 4
	flipFirst    = 4
)

// NewBlitter compiles s for c. It picks the GLSL 1.50 sources for
// desktop contexts and the GLSL 1.00 ES sources otherwise.
func NewBlitter(c *Context, s Shaders) (*Blitter, error) {
	const op = "NewBlitter"
	b := &Blitter{ctx: c}
	err := c.doCurrent(op, func(f gl.Functions) error {
		vsrc, fsrc := s.Vertex.GLSL100ES, s.Fragment.GLSL100ES
		if c.version.Version.Profile == ProfileCore {
			vsrc, fsrc = s.Vertex.GLSL150, s.Fragment.GLSL150
		}
		if vsrc == "" || fsrc == "" {
			return errorf(KindDraw, op, "shaders %q/%q have no source for %s", s.Vertex.Name, s.Fragment.Name, c.version.Version)
		}
		attribs, err := attribNames(s.Vertex.Inputs)
		if err != nil {
			return newError(KindDraw, op, err)
		}
		prog, err := gl.CreateProgram(f, vsrc, fsrc, attribs)
		if err != nil {
			return newError(KindDraw, op, err)
		}
		b.prog = prog
		sampler := "tex"
		if t := s.Fragment.Textures; len(t) > 0 {
			sampler, b.unit = t[0].Name, t[0].Binding
		}
		f.UseProgram(prog)
		b.tex = f.GetUniformLocation(prog, sampler)
		if b.tex.Valid() {
			f.Uniform1i(b.tex, b.unit)
		}
		f.UseProgram(gl.Program{})
		b.vbo = f.CreateBuffer()
		f.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
		data := make([]byte, len(quadVertices)*4)
		for i, v := range quadVertices {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
		}
		f.BufferData(gl.ARRAY_BUFFER, data, gl.STATIC_DRAW)
		if c.caps.vertexArrays {
			b.vao = f.CreateVertexArray()
			f.BindVertexArray(b.vao)
			b.setupAttribs(f)
			f.BindVertexArray(gl.VertexArray{})
		}
		f.BindBuffer(gl.ARRAY_BUFFER, gl.Buffer{})
		if err := glError(f, KindDraw, op); err != nil {
			b.release(f)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// attribNames orders the vertex inputs by location. Locations 0 and 1
// must be present.
func attribNames(inputs []shader.InputLocation) ([]string, error) {
	in := append([]shader.InputLocation(nil), inputs...)
	sort.Slice(in, func(i, j int) bool {
		return in[i].Location < in[j].Location
	})
	var names []string
	for i, a := range in {
		if a.Location != i {
			return nil, errorf(KindDraw, "", "vertex input %q at location %d, expected %d", a.Name, a.Location, i)
		}
		names = append(names, a.Name)
	}
	if len(names) < 2 {
		return nil, errorf(KindDraw, "", "vertex shader has %d inputs, expected position and texture coordinate", len(names))
	}
	return names, nil
}

func (b *Blitter) setupAttribs(f gl.Functions) {
	f.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	f.VertexAttribPointer(0, 2, gl.FLOAT, false, vertexStride, 0)
	f.VertexAttribPointer(1, 2, gl.FLOAT, false, vertexStride, 2*4)
	f.EnableVertexAttribArray(0)
	f.EnableVertexAttribArray(1)
}

// Blit stretches src over all of dst, mirroring it vertically if flip is
// set. src is only read.
func (b *Blitter) Blit(dst, src *Framebuffer, flip bool) error {
	const op = "Blit"
	c := b.ctx
	return c.doCurrent(op, func(f gl.Functions) error {
		if err := b.prepare(op, dst, src); err != nil {
			return err
		}
		f.Viewport(0, 0, dst.width, dst.height)
		f.Disable(gl.BLEND)
		b.draw(f, dst, src, flip)
		return glError(f, KindDraw, op)
	})
}

// Blend composites src over dst with source alpha blending. The image
// is scaled to scaleX*width by scaleY*height pixels and placed with its
// row 0 corner at (x, y), which is the top left corner for buffers whose
// row 0 is the top row. flip mirrors src vertically within the placed
// rectangle. Parts outside dst are clipped; dst is not cleared.
func (b *Blitter) Blend(dst, src *Framebuffer, flip bool, x, y int, scaleX, scaleY float64) error {
	const op = "Blend"
	if !(scaleX > 0) || !(scaleY > 0) || math.IsInf(scaleX, 0) || math.IsInf(scaleY, 0) {
		return errorf(KindInvalidArgument, op, "invalid scale %gx%g", scaleX, scaleY)
	}
	c := b.ctx
	return c.doCurrent(op, func(f gl.Functions) error {
		if err := b.prepare(op, dst, src); err != nil {
			return err
		}
		sw, sh := scaleX*float64(src.width), scaleY*float64(src.height)
		if sw > maxSize || sh > maxSize {
			return errorf(KindInvalidArgument, op, "scaled size %gx%g exceeds %d", sw, sh, maxSize)
		}
		w, h := int(sw), int(sh)
		if w <= 0 || h <= 0 {
			return nil
		}
		f.Viewport(x, y, w, h)
		f.Enable(gl.BLEND)
		f.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		b.draw(f, dst, src, flip)
		f.Disable(gl.BLEND)
		return glError(f, KindDraw, op)
	})
}

func (b *Blitter) prepare(op string, dst, src *Framebuffer) error {
	c := b.ctx
	if !b.prog.Valid() {
		return errorf(KindInvalidState, op, "blitter released")
	}
	if err := dst.check(c, op); err != nil {
		return err
	}
	if err := src.check(c, op); err != nil {
		return err
	}
	switch {
	case src.tex == nil:
		return errorf(KindInvalidArgument, op, "source is the default framebuffer")
	case src == dst || src.tex == dst.tex:
		return errorf(KindInvalidArgument, op, "source and destination share a texture")
	}
	return nil
}

func (b *Blitter) draw(f gl.Functions, dst, src *Framebuffer, flip bool) {
	dst.bind(f, gl.FRAMEBUFFER)
	f.UseProgram(b.prog)
	f.ActiveTexture(gl.Enum(gl.TEXTURE0 + b.unit))
	f.BindTexture(gl.TEXTURE_2D, glTexture(src.tex))
	if b.vao.Valid() {
		f.BindVertexArray(b.vao)
	} else {
		b.setupAttribs(f)
	}
	first := 0
	if flip {
		first = flipFirst
	}
	f.DrawArrays(gl.TRIANGLE_STRIP, first, 4)
	if b.vao.Valid() {
		f.BindVertexArray(gl.VertexArray{})
	}
	f.BindBuffer(gl.ARRAY_BUFFER, gl.Buffer{})
	f.BindTexture(gl.TEXTURE_2D, gl.Texture{})
	f.ActiveTexture(gl.TEXTURE0)
	f.UseProgram(gl.Program{})
	f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
}

// Release deletes the program and vertex data. Calling it again does
// nothing.
func (b *Blitter) Release() {
	b.ctx.release("Blitter.Release", b.release)
}

func (b *Blitter) release(f gl.Functions) {
	if b.prog.Valid() {
		f.DeleteProgram(b.prog)
		b.prog = gl.Program{}
	}
	if b.vbo.Valid() {
		f.DeleteBuffer(b.vbo)
		b.vbo = gl.Buffer{}
	}
	if b.vao.Valid() {
		f.DeleteVertexArray(b.vao)
		b.vao = gl.VertexArray{}
	}
}
