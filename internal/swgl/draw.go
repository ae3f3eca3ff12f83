// SPDX-License-Identifier: Unlicense OR MIT

package swgl

import (
	"image"
	"image/color"
	"math"

	"gioui.org/vmdisplay/internal/gl"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

func (f *Functions) Clear(mask gl.Enum) {
	if mask&^gl.COLOR_BUFFER_BIT != 0 {
		f.setError(gl.INVALID_VALUE)
		return
	}
	if mask == 0 {
		return
	}
	dst, status := f.attachment(f.drawFBO)
	if status != gl.FRAMEBUFFER_COMPLETE {
		f.setError(gl.INVALID_FRAMEBUFFER_OPERATION)
		return
	}
	r := dst.bounds()
	if f.scissorTest {
		r = r.Intersect(f.scissor)
	}
	c := color.RGBA{
		R: unorm(f.clearColor[0]),
		G: unorm(f.clearColor[1]),
		B: unorm(f.clearColor[2]),
		A: unorm(f.clearColor[3]),
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.setRGBA(x, y, c)
		}
	}
}

func unorm(v float32) uint8 {
	return uint8(math.Round(float64(min(max(v, 0), 1)) * 0xff))
}

// DrawArrays draws a textured quad given as a four vertex triangle strip.
// Other primitives are rejected with INVALID_OPERATION.
func (f *Functions) DrawArrays(mode gl.Enum, first, count int) {
	if mode != gl.TRIANGLE_STRIP {
		f.setError(gl.INVALID_ENUM)
		return
	}
	if first < 0 || count < 0 {
		f.setError(gl.INVALID_VALUE)
		return
	}
	if count < 3 {
		return
	}
	prog := f.programs[f.program]
	if prog == nil || count != 4 {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	dst, status := f.attachment(f.drawFBO)
	if status != gl.FRAMEBUFFER_COMPLETE {
		f.setError(gl.INVALID_FRAMEBUFFER_OPERATION)
		return
	}
	vao := f.currentVAO()
	posAttr := vao.attribs[prog.location("pos", 0)]
	uvAttr := vao.attribs[prog.location("uv", 1)]
	src := f.textures[f.units[prog.sampler("tex")]]
	if !posAttr.enabled || !uvAttr.enabled || src == nil || src.Pix == nil || src == dst {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	vp := f.viewport
	var pos, tex [3][2]float64
	for i := range pos {
		p, ok1 := f.vertex(posAttr, first+i)
		t, ok2 := f.vertex(uvAttr, first+i)
		if !ok1 || !ok2 {
			f.setError(gl.INVALID_OPERATION)
			return
		}
		pos[i] = [2]float64{
			float64(vp.Min.X) + (p[0]+1)/2*float64(vp.Dx()),
			float64(vp.Min.Y) + (p[1]+1)/2*float64(vp.Dy()),
		}
		tex[i] = [2]float64{t[0] * float64(src.Width), t[1] * float64(src.Height)}
	}
	s2d, ok := quadTransform(pos, tex)
	if !ok {
		return
	}
	clip := dst.bounds().Intersect(vp)
	if f.scissorTest {
		clip = clip.Intersect(f.scissor)
	}
	d := &target{t: dst, clip: clip, blend: f.blend, src: f.srcFactor, dst: f.dstFactor}
	src.interpolator().Transform(d, s2d, src.image(), src.bounds(), draw.Src, nil)
}

// quadTransform returns the affine map from texel to window coordinates
// that carries the texture coordinates of three vertices to their
// positions. It fails for degenerate texture coordinates.
func quadTransform(pos, tex [3][2]float64) (f64.Aff3, bool) {
	m00, m01 := tex[1][0]-tex[0][0], tex[2][0]-tex[0][0]
	m10, m11 := tex[1][1]-tex[0][1], tex[2][1]-tex[0][1]
	det := m00*m11 - m01*m10
	if det == 0 {
		return f64.Aff3{}, false
	}
	i00, i01 := m11/det, -m01/det
	i10, i11 := -m10/det, m00/det
	n00, n01 := pos[1][0]-pos[0][0], pos[2][0]-pos[0][0]
	n10, n11 := pos[1][1]-pos[0][1], pos[2][1]-pos[0][1]
	a00 := n00*i00 + n01*i10
	a01 := n00*i01 + n01*i11
	a10 := n10*i00 + n11*i10
	a11 := n10*i01 + n11*i11
	return f64.Aff3{
		a00, a01, pos[0][0] - a00*tex[0][0] - a01*tex[0][1],
		a10, a11, pos[0][1] - a10*tex[0][0] - a11*tex[0][1],
	}, true
}

func (p *program) location(name string, def gl.Attrib) gl.Attrib {
	if a, ok := p.attribs[name]; ok {
		return a
	}
	return def
}

func (p *program) sampler(name string) int {
	for i, n := range p.uniforms {
		if n == name {
			if unit, ok := p.values[i]; ok && unit >= 0 && unit < maxUnits {
				return unit
			}
		}
	}
	return 0
}

func (f *Functions) BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask gl.Enum, filter gl.Enum) {
	if mask&^gl.COLOR_BUFFER_BIT != 0 {
		f.setError(gl.INVALID_VALUE)
		return
	}
	var interp draw.Interpolator
	switch filter {
	case gl.NEAREST:
		interp = draw.NearestNeighbor
	case gl.LINEAR:
		interp = draw.ApproxBiLinear
	default:
		f.setError(gl.INVALID_ENUM)
		return
	}
	if mask == 0 {
		return
	}
	src, rs := f.attachment(f.readFBO)
	dst, ds := f.attachment(f.drawFBO)
	if rs != gl.FRAMEBUFFER_COMPLETE || ds != gl.FRAMEBUFFER_COMPLETE {
		f.setError(gl.INVALID_FRAMEBUFFER_OPERATION)
		return
	}
	if src == dst {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	if sx0 == sx1 || sy0 == sy1 || dx0 == dx1 || dy0 == dy1 {
		return
	}
	// Swapped coordinates mirror the copy.
	scaleX := float64(dx1-dx0) / float64(sx1-sx0)
	scaleY := float64(dy1-dy0) / float64(sy1-sy0)
	s2d := f64.Aff3{
		scaleX, 0, float64(dx0) - float64(sx0)*scaleX,
		0, scaleY, float64(dy0) - float64(sy0)*scaleY,
	}
	sr := image.Rect(sx0, sy0, sx1, sy1).Intersect(src.bounds())
	clip := image.Rect(dx0, dy0, dx1, dy1).Intersect(dst.bounds())
	if f.scissorTest {
		clip = clip.Intersect(f.scissor)
	}
	interp.Transform(&target{t: dst, clip: clip}, s2d, src.image(), sr, draw.Src, nil)
}

// ReadPixels copies rows in ascending y order. Pixels outside the read
// framebuffer leave data untouched.
func (f *Functions) ReadPixels(x, y, width, height int, format, ty gl.Enum, data []byte) {
	if width < 0 || height < 0 {
		f.setError(gl.INVALID_VALUE)
		return
	}
	if ty != gl.UNSIGNED_BYTE || (format != gl.RGBA && format != gl.BGRA_EXT) {
		f.setError(gl.INVALID_ENUM)
		return
	}
	src, status := f.attachment(f.readFBO)
	if status != gl.FRAMEBUFFER_COMPLETE {
		f.setError(gl.INVALID_FRAMEBUFFER_OPERATION)
		return
	}
	stride := rowStride(f.packRowLength, width)
	if height > 0 && len(data) < (height-1)*stride+width*4 {
		f.setError(gl.INVALID_OPERATION)
		return
	}
	b := src.bounds()
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			p := image.Pt(x+col, y+row)
			if !p.In(b) {
				continue
			}
			o := row*stride + col*4
			encode(format, data[o:o+4], src.rgbaAt(p.X, p.Y))
		}
	}
}

func decode(format gl.Enum, p []byte) color.RGBA {
	if format == gl.BGRA_EXT {
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
	}
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

func encode(format gl.Enum, p []byte, c color.RGBA) {
	if format == gl.BGRA_EXT {
		p[0], p[1], p[2], p[3] = c.B, c.G, c.R, c.A
		return
	}
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}
