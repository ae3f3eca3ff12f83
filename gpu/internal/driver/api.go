// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package driver

import (
	"errors"
	"fmt"

	"gioui.org/vmdisplay/internal/drm"
)

// API selects the backend that opens a render node.
type API interface {
	implementsAPI()
}

// Native is the EGL backend on a GBM device created from the render
// node.
type Native struct {
	Mode Mode
	// Display is a native display handle for windowed composition, or 0.
	Display uintptr
}

// Software is the headless-stub backend on the software rasterizer.
type Software struct {
	Mode Mode
}

// API specific device constructors, set by the backends in init.
var (
	NewNativeDevice   func(node *drm.Node, api Native) (Device, error)
	NewSoftwareDevice func(node *drm.Node, api Software) (Device, error)
)

var (
	// ErrUnsupportedMode is returned by constructors for a Mode the
	// backend cannot compose in.
	ErrUnsupportedMode = errors.New("driver: unsupported composition mode")
	// ErrNoDriver is returned when the API has no registered backend.
	ErrNoDriver = errors.New("driver: no driver available")
)

// NewDevice creates a Device for node given the api. The device does not
// assume ownership of node.
func NewDevice(node *drm.Node, api API) (Device, error) {
	switch api := api.(type) {
	case Native:
		if NewNativeDevice != nil {
			return NewNativeDevice(node, api)
		}
	case Software:
		if NewSoftwareDevice != nil {
			return NewSoftwareDevice(node, api)
		}
	}
	return nil, fmt.Errorf("%w for the API %T", ErrNoDriver, api)
}

func (Native) implementsAPI()   {}
func (Software) implementsAPI() {}
