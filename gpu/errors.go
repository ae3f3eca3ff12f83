// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"errors"
	"fmt"
	"strings"

	"gioui.org/vmdisplay/gpu/internal/driver"
	"gioui.org/vmdisplay/internal/gl"
	"golang.org/x/sys/unix"
)

//go:generate go tool stringer -type=Kind -trimprefix=Kind

// Kind classifies an Error.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindDeviceOpen is a render node that could not be opened or that no
	// backend could use.
	KindDeviceOpen
	// KindContextCreation means every rung of the version ladder failed.
	KindContextCreation
	KindMakeCurrent
	KindImport
	KindExport
	KindReadback
	KindUnsupportedMode
	// KindInvalidState is an operation on a destroyed or released object,
	// or one that needs a current context.
	KindInvalidState
	KindDraw
	KindFence
	KindInvalidArgument
)

// Error is the error type of the package. Use errors.Is with the Err
// sentinels to test the kind.
type Error struct {
	Kind Kind
	// Op names the failed operation.
	Op string
	// Code is the platform status code, an EGL or GL error or an errno,
	// or zero.
	Code int
	// Attempts lists the context versions tried by CreateContext.
	Attempts []Attempt
	Err      error
}

var (
	ErrDeviceOpen      = &Error{Kind: KindDeviceOpen}
	ErrContextCreation = &Error{Kind: KindContextCreation}
	ErrMakeCurrent     = &Error{Kind: KindMakeCurrent}
	ErrImport          = &Error{Kind: KindImport}
	ErrExport          = &Error{Kind: KindExport}
	ErrReadback        = &Error{Kind: KindReadback}
	ErrUnsupportedMode = &Error{Kind: KindUnsupportedMode}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrDraw            = &Error{Kind: KindDraw}
	ErrFence           = &Error{Kind: KindFence}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

func (k Kind) message() string {
	switch k {
	case KindDeviceOpen:
		return "device open failed"
	case KindContextCreation:
		return "context creation failed"
	case KindMakeCurrent:
		return "make current failed"
	case KindImport:
		return "dmabuf import failed"
	case KindExport:
		return "dmabuf export failed"
	case KindReadback:
		return "readback failed"
	case KindUnsupportedMode:
		return "unsupported mode"
	case KindInvalidState:
		return "invalid state"
	case KindDraw:
		return "draw failed"
	case KindFence:
		return "fence failed"
	case KindInvalidArgument:
		return "invalid argument"
	}
	return "error"
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("gpu: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.message())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Attempts) > 0 {
		b.WriteString("; tried ")
		for i, a := range e.Attempts {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Version.String())
		}
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// newError wraps err, lifting the platform status code out of driver
// errors and errnos.
func newError(k Kind, op string, err error) *Error {
	e := &Error{Kind: k, Op: op, Err: err}
	var derr *driver.Error
	var errno unix.Errno
	switch {
	case errors.As(err, &derr):
		e.Code = derr.Code
	case errors.As(err, &errno):
		e.Code = int(errno)
	}
	return e
}

func errorf(k Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: k, Op: op, Err: fmt.Errorf(format, args...)}
}

// glError returns the pending GL error as an Error of kind k, or nil.
func glError(f gl.Functions, k Kind, op string) error {
	code := f.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	return &Error{Kind: k, Op: op, Code: int(code), Err: errors.New(gl.ErrorString(code))}
}

// glFailure is like glError for a call that reported failure, which may
// leave no GL error pending.
func glFailure(f gl.Functions, k Kind, op, call string) error {
	if err := glError(f, k, op); err != nil {
		return err
	}
	return errorf(k, op, "%s failed", call)
}
