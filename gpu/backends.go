// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	// Register the backends.
	_ "gioui.org/vmdisplay/gpu/internal/native"
	_ "gioui.org/vmdisplay/gpu/internal/software"
)
