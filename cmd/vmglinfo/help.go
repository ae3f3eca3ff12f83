// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package main

const mainUsage = `The vmglinfo command reports what a render node offers for guest display
composition.

Usage:

	vmglinfo [flags]

The vmglinfo tool opens a render node, creates a context and prints the
backend, the context version, the GL strings and the capabilities of the
device.

The -config flag names a TOML file with the keys node, mode, backend,
profile, debug and fence_timeout. Flags given on the command line override
the file.

The -node flag selects the render node, /dev/dri/renderD128 by default.

The -backend flag selects auto, native or software. The -profile flag
restricts the context versions tried to core or es.

The -selftest flag composites a test pattern into an exported buffer and
checks the result read back through its linear mapping.

The -v flag logs context creation and fence waits to stderr.
`
