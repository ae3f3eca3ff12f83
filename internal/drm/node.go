// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

// Package drm opens DRM device nodes and manages the shared memory the
// software backend uses in place of GPU buffer objects.
package drm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"
)

// Major is the character device major number of DRM nodes.
const Major = 226

// Render nodes use minor numbers from renderMinorBase.
const renderMinorBase = 128

// ErrNotDevice is returned when a path does not name a character device.
var ErrNotDevice = errors.New("not a character device")

// Node is an open device node.
type Node struct {
	path  string
	fd    int
	major uint32
	minor uint32
}

// Open opens path read-write and checks that it is a character device.
// Errors are *os.PathError values wrapping the errno.
func Open(path string) (*Node, error) {
	if path == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: unix.ENOENT}
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, &os.PathError{Op: "fstat", Path: path, Err: err}
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		unix.Close(fd)
		return nil, &os.PathError{Op: "open", Path: path, Err: ErrNotDevice}
	}
	return &Node{
		path:  path,
		fd:    fd,
		major: unix.Major(uint64(st.Rdev)),
		minor: unix.Minor(uint64(st.Rdev)),
	}, nil
}

func (n *Node) Path() string { return n.path }

// Fd returns the file descriptor of the node, or -1 after Close.
func (n *Node) Fd() int { return n.fd }

// IsDRM reports whether the node is a DRM device.
func (n *Node) IsDRM() bool {
	return n.major == Major
}

// IsRenderNode reports whether the node is a DRM render node, which
// allows GPU access without modesetting rights.
func (n *Node) IsRenderNode() bool {
	return n.IsDRM() && n.minor >= renderMinorBase
}

func (n *Node) String() string {
	return fmt.Sprintf("%s (%d:%d)", n.path, n.major, n.minor)
}

func (n *Node) Close() error {
	if n.fd < 0 {
		return nil
	}
	err := unix.Close(n.fd)
	n.fd = -1
	return err
}

// RenderNodes lists the render nodes under /dev/dri in minor order.
func RenderNodes() []string {
	nodes, _ := filepath.Glob("/dev/dri/renderD*")
	sort.Strings(nodes)
	return nodes
}
