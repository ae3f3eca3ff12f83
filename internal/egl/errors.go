// SPDX-License-Identifier: Unlicense OR MIT

package egl

import "fmt"

// EGL error codes.
const (
	SUCCESS             = 0x3000
	NOT_INITIALIZED     = 0x3001
	BAD_ACCESS          = 0x3002
	BAD_ALLOC           = 0x3003
	BAD_ATTRIBUTE       = 0x3004
	BAD_CONFIG          = 0x3005
	BAD_CONTEXT         = 0x3006
	BAD_CURRENT_SURFACE = 0x3007
	BAD_DISPLAY         = 0x3008
	BAD_MATCH           = 0x3009
	BAD_NATIVE_PIXMAP   = 0x300a
	BAD_NATIVE_WINDOW   = 0x300b
	BAD_PARAMETER       = 0x300c
	BAD_SURFACE         = 0x300d
	CONTEXT_LOST        = 0x300e
)

var errorNames = map[int]string{
	SUCCESS:             "EGL_SUCCESS",
	NOT_INITIALIZED:     "EGL_NOT_INITIALIZED",
	BAD_ACCESS:          "EGL_BAD_ACCESS",
	BAD_ALLOC:           "EGL_BAD_ALLOC",
	BAD_ATTRIBUTE:       "EGL_BAD_ATTRIBUTE",
	BAD_CONFIG:          "EGL_BAD_CONFIG",
	BAD_CONTEXT:         "EGL_BAD_CONTEXT",
	BAD_CURRENT_SURFACE: "EGL_BAD_CURRENT_SURFACE",
	BAD_DISPLAY:         "EGL_BAD_DISPLAY",
	BAD_MATCH:           "EGL_BAD_MATCH",
	BAD_NATIVE_PIXMAP:   "EGL_BAD_NATIVE_PIXMAP",
	BAD_NATIVE_WINDOW:   "EGL_BAD_NATIVE_WINDOW",
	BAD_PARAMETER:       "EGL_BAD_PARAMETER",
	BAD_SURFACE:         "EGL_BAD_SURFACE",
	CONTEXT_LOST:        "EGL_CONTEXT_LOST",
}

// ErrorString returns the symbolic name of an eglGetError code.
func ErrorString(code int) string {
	if name, ok := errorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("EGL error 0x%x", code)
}
