// SPDX-License-Identifier: Unlicense OR MIT

package dmabuf

import "fmt"

// Fourcc is a DRM pixel format code, four ASCII characters packed little
// endian.
type Fourcc uint32

// Modifier is a DRM format modifier: the vendor in the top 8 bits, a
// vendor specific tiling or compression layout in the rest.
type Modifier uint64

// Formats with a single 32 bit plane, named after the packed pixel read
// as a little endian word.
const (
	FormatXRGB8888 = Fourcc('X' | 'R'<<8 | '2'<<16 | '4'<<24)
	FormatARGB8888 = Fourcc('A' | 'R'<<8 | '2'<<16 | '4'<<24)
	FormatXBGR8888 = Fourcc('X' | 'B'<<8 | '2'<<16 | '4'<<24)
	FormatABGR8888 = Fourcc('A' | 'B'<<8 | '2'<<16 | '4'<<24)
	FormatRGB565   = Fourcc('R' | 'G'<<8 | '1'<<16 | '6'<<24)
	FormatNV12     = Fourcc('N' | 'V'<<8 | '1'<<16 | '2'<<24)
)

const (
	// ModLinear is the untiled row-major layout.
	ModLinear Modifier = 0
	// ModInvalid means no explicit modifier; the layout is implied by
	// the allocating driver.
	ModInvalid Modifier = 0x00ffffffffffffff
)

// Vendor codes of the modifier top byte.
const (
	VendorNone     = 0x00
	VendorIntel    = 0x01
	VendorAMD      = 0x02
	VendorNVIDIA   = 0x03
	VendorBroadcom = 0x07
	VendorARM      = 0x08
)

// MakeFourcc packs four characters into a format code.
func MakeFourcc(a, b, c, d byte) Fourcc {
	return Fourcc(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// String returns the four characters, or the hex code when they are not
// printable.
func (f Fourcc) String() string {
	b := [4]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(f))
		}
	}
	return string(b[:])
}

// BytesPerPixel returns the size of a pixel of a single plane format, or
// 0 for unknown and multi-planar formats.
func (f Fourcc) BytesPerPixel() int {
	switch f {
	case FormatXRGB8888, FormatARGB8888, FormatXBGR8888, FormatABGR8888:
		return 4
	case FormatRGB565:
		return 2
	}
	return 0
}

// HasAlpha reports whether the format carries an alpha channel.
func (f Fourcc) HasAlpha() bool {
	return f == FormatARGB8888 || f == FormatABGR8888
}

func (m Modifier) Vendor() uint8 {
	return uint8(m >> 56)
}

func (m Modifier) String() string {
	switch m {
	case ModLinear:
		return "LINEAR"
	case ModInvalid:
		return "INVALID"
	}
	return fmt.Sprintf("0x%02x:0x%014x", m.Vendor(), uint64(m)&(1<<56-1))
}
