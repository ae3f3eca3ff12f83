// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

// Package gpu composites virtual machine scanouts on a GPU render node.
//
// A Device opens a render node and selects a backend. Contexts created
// from it run every GL and EGL call on a dedicated OS thread, so their
// methods may be called from any goroutine. Framebuffers wrap textures as
// render targets, a Blitter copies and blends them with a shader program,
// and the DMA-BUF operations of Context exchange buffers and fences with
// other processes.
package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"gioui.org/vmdisplay/gpu/internal/driver"
	"gioui.org/vmdisplay/internal/drm"
	"gioui.org/vmdisplay/internal/log"
)

// Device is an opened render node and the backend driving it.
type Device struct {
	node *drm.Node
	drv  driver.Device
	mode Mode
	opts options
	log  *slog.Logger

	mu       sync.Mutex
	contexts map[*Context]struct{}
	released bool
	nextID   int
}

// capabilities maps capability keys of QueryExtensionSupport to
// features.
var capabilities = map[string]driver.Feature{
	"dmabuf-import":    driver.FeatureDmabufImport,
	"dmabuf-export":    driver.FeatureDmabufExport,
	"dmabuf-modifiers": driver.FeatureDmabufModifiers,
	"fence":            driver.FeatureNativeFence,
	"surfaceless":      driver.FeatureSurfaceless,
}

// InitDevice opens the render node at path for composition in mode.
func InitDevice(renderNode string, mode Mode, opts ...Option) (*Device, error) {
	const op = "InitDevice"
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := log.With("gpu")
	if o.logger != nil {
		l = o.logger.With(slog.String("component", "gpu"))
	}
	if mode != ModeHeadless && mode != ModeWindowed {
		return nil, errorf(KindUnsupportedMode, op, "%s", mode)
	}
	node, err := drm.Open(renderNode)
	if err != nil {
		return nil, newError(KindDeviceOpen, op, err)
	}
	drv, kind, err := newDriverDevice(node, mode, o)
	if err != nil {
		node.Close()
		return nil, newError(kind, op, err)
	}
	l.Info("device opened", "node", node.String(), "backend", drv.Backend(), "mode", mode)
	return &Device{
		node:     node,
		drv:      drv,
		mode:     mode,
		opts:     o,
		log:      l,
		contexts: make(map[*Context]struct{}),
	}, nil
}

// newDriverDevice tries the backends o selects in order. The kind is
// KindUnsupportedMode if every available backend rejected the mode.
func newDriverDevice(node *drm.Node, mode Mode, o options) (driver.Device, Kind, error) {
	var apis []driver.API
	switch o.backend {
	case BackendAuto:
		apis = []driver.API{driver.Native{Mode: mode, Display: o.display}, driver.Software{Mode: mode}}
	case BackendNative:
		apis = []driver.API{driver.Native{Mode: mode, Display: o.display}}
	case BackendSoftware:
		apis = []driver.API{driver.Software{Mode: mode}}
	default:
		return nil, KindDeviceOpen, fmt.Errorf("unknown backend %s", o.backend)
	}
	var errs []error
	var unsupported, failed bool
	for _, api := range apis {
		d, err := driver.NewDevice(node, api)
		if err == nil {
			return d, KindUnknown, nil
		}
		errs = append(errs, err)
		switch {
		case errors.Is(err, driver.ErrUnsupportedMode):
			unsupported = true
		case errors.Is(err, driver.ErrNoDriver):
		default:
			failed = true
		}
	}
	kind := KindDeviceOpen
	if unsupported && !failed {
		kind = KindUnsupportedMode
	}
	return nil, kind, errors.Join(errs...)
}

// Backend returns the name of the backend in use, "native" or
// "software".
func (d *Device) Backend() string {
	return d.drv.Backend()
}

func (d *Device) Mode() Mode {
	return d.mode
}

// Node returns the path of the render node.
func (d *Device) Node() string {
	return d.node.Path()
}

// QueryExtensionSupport reports whether the display supports an extension
// given by name, or a capability given by one of the keys
// "dmabuf-import", "dmabuf-export", "dmabuf-modifiers", "fence" and
// "surfaceless". Unknown names report false.
func (d *Device) QueryExtensionSupport(name string) bool {
	d.mu.Lock()
	released := d.released
	d.mu.Unlock()
	if released {
		return false
	}
	if f, ok := capabilities[name]; ok {
		return d.drv.Has(f)
	}
	return slices.Contains(d.drv.Extensions(), name)
}

// Extensions lists the display extensions of the device, or nil once it
// is released.
func (d *Device) Extensions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	return d.drv.Extensions()
}

// Capabilities lists the capability keys of QueryExtensionSupport the
// device supports, sorted.
func (d *Device) Capabilities() []string {
	var keys []string
	for k := range capabilities {
		if d.QueryExtensionSupport(k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Release destroys the remaining contexts and closes the render node.
// Calling it again does nothing.
func (d *Device) Release() {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return
	}
	d.released = true
	var ctxs []*Context
	for c := range d.contexts {
		ctxs = append(ctxs, c)
	}
	d.mu.Unlock()
	for _, c := range ctxs {
		c.Destroy()
	}
	d.drv.Release()
	if err := d.node.Close(); err != nil {
		d.log.Warn("close render node", "node", d.node.Path(), "error", err)
	}
	d.log.Debug("device released")
}

func (d *Device) register(c *Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return 0, errors.New("device released")
	}
	d.nextID++
	d.contexts[c] = struct{}{}
	return d.nextID, nil
}

func (d *Device) forget(c *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.contexts, c)
}
