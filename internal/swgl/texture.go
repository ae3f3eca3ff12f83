// SPDX-License-Identifier: Unlicense OR MIT

package swgl

import (
	"image"
	"image/color"

	"gioui.org/vmdisplay/internal/gl"
	"golang.org/x/image/draw"
)

// Layout is the byte order of a 32 bit texel in memory.
type Layout uint8

const (
	LayoutRGBA Layout = iota
	LayoutBGRA
	LayoutRGBX
	LayoutBGRX
)

// Storage describes the pixel memory of a texture. Row 0 is GL y 0.
type Storage struct {
	Width, Height int
	Stride        int
	Layout        Layout
	Pix           []byte
}

type texture struct {
	Storage
	magFilter gl.Enum
	// release returns external memory to its owner.
	release func()
}

func (l Layout) opaque() bool {
	return l == LayoutRGBX || l == LayoutBGRX
}

func (t *texture) bounds() image.Rectangle {
	return image.Rect(0, 0, t.Width, t.Height)
}

func (t *texture) drop() {
	if t.release != nil {
		t.release()
		t.release = nil
	}
	t.Pix = nil
}

func (t *texture) rgbaAt(x, y int) color.RGBA {
	o := y*t.Stride + x*4
	p := t.Pix[o : o+4 : o+4]
	switch t.Layout {
	case LayoutBGRA:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
	case LayoutRGBX:
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
	case LayoutBGRX:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
	default:
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
}

func (t *texture) setRGBA(x, y int, c color.RGBA) {
	o := y*t.Stride + x*4
	p := t.Pix[o : o+4 : o+4]
	if t.Layout.opaque() {
		c.A = 0xff
	}
	switch t.Layout {
	case LayoutBGRA, LayoutBGRX:
		p[0], p[1], p[2], p[3] = c.B, c.G, c.R, c.A
	default:
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	}
}

// image returns a view of the texture for sampling.
func (t *texture) image() image.Image {
	if t.Layout == LayoutRGBA {
		return &image.RGBA{Pix: t.Pix, Stride: t.Stride, Rect: t.bounds()}
	}
	return texView{t}
}

func (t *texture) interpolator() draw.Interpolator {
	if t.magFilter == gl.LINEAR {
		return draw.ApproxBiLinear
	}
	return draw.NearestNeighbor
}

// texView adapts a swizzled texture to image.Image.
type texView struct{ t *texture }

func (v texView) ColorModel() color.Model { return color.RGBAModel }
func (v texView) Bounds() image.Rectangle { return v.t.bounds() }
func (v texView) At(x, y int) color.Color { return v.t.rgbaAt(x, y) }

// target is a draw.Image that writes into a texture through the fixed
// function blend stage. Pixels outside clip are discarded.
type target struct {
	t        *texture
	clip     image.Rectangle
	blend    bool
	src, dst gl.Enum
}

func (d *target) ColorModel() color.Model { return color.RGBAModel }
func (d *target) Bounds() image.Rectangle { return d.clip }
func (d *target) At(x, y int) color.Color { return d.t.rgbaAt(x, y) }

func (d *target) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(d.clip) {
		return
	}
	s := color.RGBAModel.Convert(c).(color.RGBA)
	if d.blend {
		s = blend(s, d.t.rgbaAt(x, y), d.src, d.dst)
	}
	d.t.setRGBA(x, y, s)
}

func blend(s, d color.RGBA, sf, df gl.Enum) color.RGBA {
	fs, fd := factor(sf, s.A), factor(df, s.A)
	mix := func(a, b uint8) uint8 {
		v := (uint32(a)*fs + uint32(b)*fd + 127) / 255
		if v > 0xff {
			v = 0xff
		}
		return uint8(v)
	}
	return color.RGBA{R: mix(s.R, d.R), G: mix(s.G, d.G), B: mix(s.B, d.B), A: mix(s.A, d.A)}
}

func factor(f gl.Enum, srcAlpha uint8) uint32 {
	switch f {
	case gl.ZERO:
		return 0
	case gl.SRC_ALPHA:
		return uint32(srcAlpha)
	case gl.ONE_MINUS_SRC_ALPHA:
		return 0xff - uint32(srcAlpha)
	default:
		return 0xff
	}
}
