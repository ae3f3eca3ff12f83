// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"golang.org/x/image/colornames"

	"gioui.org/vmdisplay/dmabuf"
	"gioui.org/vmdisplay/gpu"
)

const patternSize = 64

// runSelftest blends a two-color pattern scaled by two into an exported
// target and probes the result.
func runSelftest(ctx *gpu.Context) error {
	b, err := gpu.NewBlitter(ctx, gpu.DefaultShaders())
	if err != nil {
		return err
	}
	defer b.Release()
	dst, err := ctx.NewFramebuffer(patternSize, patternSize)
	if err != nil {
		return err
	}
	defer dst.Release()
	src, err := ctx.NewFramebuffer(16, 16)
	if err != nil {
		return err
	}
	defer src.Release()

	var out *gpu.DmaBuf
	if ctx.QueryExtensionSupport("dmabuf-export") && ctx.QueryExtensionSupport("fence") {
		if out, err = ctx.ExportTexture(dst); err != nil {
			return err
		}
		defer out.Close()
		defer ctx.ReleaseDmaBuf(out)
	}

	pattern := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		c := colornames.Red
		if y >= 8 {
			c = colornames.Blue
		}
		for x := 0; x < 16; x++ {
			pattern.SetRGBA(x, y, c)
		}
	}
	if err := src.Upload(pattern); err != nil {
		return err
	}
	if err := dst.Clear(colornames.White); err != nil {
		return err
	}
	if err := b.Blend(dst, src, false, 8, 8, 2, 2); err != nil {
		return err
	}
	img := image.NewRGBA(dst.Bounds())
	if err := dst.ReadPixels(img); err != nil {
		return err
	}
	probes := []struct {
		x, y int
		c    color.RGBA
	}{
		{4, 4, colornames.White},
		{16, 12, colornames.Red},
		{30, 36, colornames.Blue},
		{50, 50, colornames.White},
	}
	for _, p := range probes {
		if got := img.RGBAAt(p.x, p.y); got != p.c {
			return fmt.Errorf("(%d,%d): got color %v, expected %v", p.x, p.y, got, p.c)
		}
	}
	if out == nil {
		return nil
	}
	if err := ctx.AttachFence(out); err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctx.WaitFence(wctx, out); err != nil {
		return err
	}
	if out.Modifier != dmabuf.ModLinear {
		// Tiled layouts have no CPU view.
		return nil
	}
	lin, err := dmabuf.ReadLinear(&out.Buffer)
	if err != nil {
		return err
	}
	if !bytes.Equal(lin.Pix, img.Pix) {
		return fmt.Errorf("exported buffer %v differs from the framebuffer", &out.Buffer)
	}
	return nil
}
