// SPDX-License-Identifier: Unlicense OR MIT

package dmabuf

// ConvertRow converts width pixels of a 32 bit format from src to RGBA
// byte order in dst. Formats without alpha become opaque.
func ConvertRow(f Fourcc, dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		s := src[x*4 : x*4+4 : x*4+4]
		d := dst[x*4 : x*4+4 : x*4+4]
		switch f {
		case FormatXRGB8888:
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], 0xff
		case FormatARGB8888:
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
		case FormatXBGR8888:
			d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xff
		default:
			copy(d, s)
		}
	}
}
