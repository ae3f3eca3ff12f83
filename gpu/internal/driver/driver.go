// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

// Package driver defines the interface between the public gpu package and
// the render-node backends.
package driver

import (
	"fmt"
	"image"

	"gioui.org/vmdisplay/dmabuf"
	"gioui.org/vmdisplay/internal/gl"
)

// Device is an opened render node with an initialized display.
type Device interface {
	// Backend names the implementation, "native" or "software".
	Backend() string
	// Extensions lists the display extensions.
	Extensions() []string
	Has(f Feature) bool
	// NewContext creates a context of exactly version v, sharing objects
	// with share if it is not nil.
	NewContext(v Version, share Context, debug bool) (Context, error)
	Release()
}

// Context is a GPU context. Every method must be called on the thread
// that owns the context.
type Context interface {
	Functions() gl.Functions
	// MakeCurrent binds the context and s, or no surface when s is nil.
	MakeCurrent(s Surface) error
	ReleaseCurrent() error
	NewPbufferSurface(width, height int) (Surface, error)
	NewWindowSurface(win uintptr) (Surface, error)
	// ImportTexture creates a texture over the memory of buf. The texture
	// borrows the memory; deleting it never closes buf.FD.
	ImportTexture(buf *dmabuf.Buffer) (gl.Texture, error)
	// ExportTexture returns a descriptor with a new file descriptor owned
	// by the caller. Width and height are left to the caller.
	ExportTexture(tex gl.Texture) (*dmabuf.Buffer, error)
	// NewFence inserts a native fence after the submitted commands and
	// flushes them.
	NewFence() (Fence, error)
	Release()
}

type Surface interface {
	Size() image.Point
	Release()
}

// Fence is a native fence sync object.
type Fence interface {
	// FD returns a sync file for the fence, owned by the caller.
	FD() (int, error)
	Release()
}

// ResourceCounter is implemented by contexts that track their live
// objects.
type ResourceCounter interface {
	Resources() Resources
}

// Resources counts live GPU objects.
type Resources struct {
	Textures     int
	Framebuffers int
	Programs     int
	Shaders      int
	Buffers      int
	VertexArrays int
	Syncs        int
}

// Total returns the sum of all counts.
func (r Resources) Total() int {
	return r.Textures + r.Framebuffers + r.Programs + r.Shaders + r.Buffers + r.VertexArrays + r.Syncs
}

// Mode is the composition mode of a device.
type Mode uint8

const (
	// ModeHeadless renders off-screen on a render node.
	ModeHeadless Mode = iota
	// ModeWindowed presents into native windows.
	ModeWindowed
)

// Feature is an optional capability of a device.
type Feature uint8

const (
	FeatureDmabufImport Feature = iota
	FeatureDmabufExport
	FeatureDmabufModifiers
	FeatureNativeFence
	FeatureSurfaceless
)

// Error is a failed platform call and its status code.
type Error struct {
	Call string
	Code int
	// Name is the symbolic name of Code, such as EGL_BAD_MATCH.
	Name   string
	Detail string
}

func (m Mode) String() string {
	switch m {
	case ModeHeadless:
		return "headless"
	case ModeWindowed:
		return "windowed"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "headless":
		*m = ModeHeadless
	case "windowed":
		*m = ModeWindowed
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed: %s (0x%x)", e.Call, e.Name, e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
