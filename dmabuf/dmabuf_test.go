// SPDX-License-Identifier: Unlicense OR MIT

package dmabuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFourccString(t *testing.T) {
	assert.Equal(t, "XR24", FormatXRGB8888.String())
	assert.Equal(t, "AB24", FormatABGR8888.String())
	assert.Equal(t, FormatARGB8888, MakeFourcc('A', 'R', '2', '4'))
	assert.Equal(t, "0x00000001", Fourcc(1).String())
	assert.Equal(t, 4, FormatXBGR8888.BytesPerPixel())
	assert.Equal(t, 0, FormatNV12.BytesPerPixel())
	assert.True(t, FormatARGB8888.HasAlpha())
	assert.False(t, FormatXRGB8888.HasAlpha())
}

func TestModifierString(t *testing.T) {
	assert.Equal(t, "LINEAR", ModLinear.String())
	assert.Equal(t, "INVALID", ModInvalid.String())
	xTiled := Modifier(VendorIntel<<56 | 1)
	assert.EqualValues(t, VendorIntel, xTiled.Vendor())
	assert.Equal(t, "0x01:0x00000000000001", xTiled.String())
}

func TestValidate(t *testing.T) {
	b := New(3, 64, 32, 256, FormatXRGB8888, ModLinear)
	require.NoError(t, b.Validate())
	assert.Equal(t, 256*32, b.Size())
	assert.False(t, b.HasFence())

	bad := *b
	bad.Stride = 100
	assert.Error(t, bad.Validate())
	bad = *b
	bad.Width = 0
	assert.Error(t, bad.Validate())
	bad = *b
	bad.FD = -1
	assert.Error(t, bad.Validate())
}

func TestWireLayout(t *testing.T) {
	b := &Buffer{
		FD:       7,
		Width:    1920,
		Height:   1080,
		Stride:   7680,
		Fourcc:   FormatXRGB8888,
		Modifier: ModLinear,
		FenceFD:  9,
		Y0Top:    true,
	}
	data, err := b.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, WireSize)
	// fd, width and fourcc at their fixed offsets.
	assert.Equal(t, []byte{7, 0, 0, 0}, data[0:4])
	assert.Equal(t, []byte{0x80, 0x07, 0, 0}, data[4:8])
	assert.Equal(t, []byte("XR24"), data[16:20])
	assert.Equal(t, []byte{3, 0, 0, 0}, data[20:24])

	var got Buffer
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, *b, got)

	b.FenceFD = -1
	data, _ = b.MarshalBinary()
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, -1, got.FenceFD)

	assert.Error(t, got.UnmarshalBinary(data[:WireSize-1]))
}

func TestConvertRow(t *testing.T) {
	src := []byte{0x10, 0x20, 0x30, 0x00, 0x40, 0x50, 0x60, 0x80}
	dst := make([]byte, 8)
	ConvertRow(FormatXRGB8888, dst, src, 2)
	assert.Equal(t, []byte{0x30, 0x20, 0x10, 0xff, 0x60, 0x50, 0x40, 0xff}, dst)
	ConvertRow(FormatARGB8888, dst, src, 2)
	assert.Equal(t, []byte{0x30, 0x20, 0x10, 0x00, 0x60, 0x50, 0x40, 0x80}, dst)
	ConvertRow(FormatABGR8888, dst, src, 2)
	assert.Equal(t, src, dst)
}
