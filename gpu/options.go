// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"fmt"
	"log/slog"
	"time"
)

// Backend selects the implementation behind a Device.
type Backend uint8

const (
	// BackendAuto tries the native backend, then the software backend.
	BackendAuto Backend = iota
	// BackendNative renders with EGL on a GBM device.
	BackendNative
	// BackendSoftware renders on the CPU and shares buffers through
	// memory mappings.
	BackendSoftware
)

// Option configures a Device during InitDevice.
//
// Example:
//
//	dev, err := gpu.InitDevice("/dev/dri/renderD128", gpu.ModeHeadless,
//		gpu.WithBackend(gpu.BackendNative),
//		gpu.WithFenceTimeout(time.Second))
type Option func(*options)

type options struct {
	backend      Backend
	logger       *slog.Logger
	display      uintptr
	fenceTimeout time.Duration
}

func defaultOptions() options {
	return options{
		backend: BackendAuto,
	}
}

// WithBackend pins the backend instead of trying them in order.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger sets the logger of the device and its contexts. Without it
// they log through the logger installed with SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithNativeDisplay passes the native display connection window surfaces
// are created on. Only windowed devices use it.
func WithNativeDisplay(display uintptr) Option {
	return func(o *options) {
		o.display = display
	}
}

// WithFenceTimeout bounds every fence wait of the device's contexts in
// addition to the context.Context passed to the wait. Zero waits as long
// as the context.Context allows.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fenceTimeout = d
	}
}

func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendNative:
		return "native"
	case BackendSoftware:
		return "software"
	}
	return fmt.Sprintf("Backend(%d)", uint8(b))
}

func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Backend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "auto", "":
		*b = BackendAuto
	case "native":
		*b = BackendNative
	case "software":
		*b = BackendSoftware
	default:
		return fmt.Errorf("gpu: unknown backend %q", text)
	}
	return nil
}
