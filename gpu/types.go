// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import "gioui.org/vmdisplay/gpu/internal/driver"

type (
	// Mode is the composition mode of a Device.
	Mode = driver.Mode
	// Profile restricts the context versions CreateContext tries.
	Profile = driver.Profile
	// Version is a context version and profile.
	Version = driver.Version
	// Attempt is one context creation tried by CreateContext.
	Attempt = driver.Attempt
	// Resources counts the live GPU objects of a context.
	Resources = driver.Resources
)

const (
	ModeHeadless = driver.ModeHeadless
	ModeWindowed = driver.ModeWindowed
)

const (
	ProfileAny  = driver.ProfileAny
	ProfileCore = driver.ProfileCore
	ProfileES   = driver.ProfileES
)

// NativeWindow is a native window handle, such as an X11 Window.
type NativeWindow uintptr

// Texture is a GL texture name tagged with its ownership. A framebuffer
// deletes an OwnedTexture on Release and leaves a BorrowedTexture alone.
type Texture interface {
	Name() uint32
	owned() bool
}

type (
	OwnedTexture    uint32
	BorrowedTexture uint32
)

func (t OwnedTexture) Name() uint32    { return uint32(t) }
func (t BorrowedTexture) Name() uint32 { return uint32(t) }

func (OwnedTexture) owned() bool    { return true }
func (BorrowedTexture) owned() bool { return false }
