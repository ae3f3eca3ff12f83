// SPDX-License-Identifier: Unlicense OR MIT

// Package native implements the EGL backend. Headless devices run on a
// GBM device created from the render node; windowed devices on the EGL
// display of a native window system connection. The backend needs cgo
// and registers itself only when built with it.
package native
