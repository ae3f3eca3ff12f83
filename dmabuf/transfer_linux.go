// SPDX-License-Identifier: Unlicense OR MIT

package dmabuf

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Send writes the descriptor to conn, passing the buffer and fence file
// descriptors as SCM_RIGHTS ancillary data. The caller keeps its own
// descriptors open.
func Send(conn *net.UnixConn, b *Buffer) error {
	if err := b.Validate(); err != nil {
		return err
	}
	msg, err := b.MarshalBinary()
	if err != nil {
		return err
	}
	fds := []int{b.FD}
	if b.HasFence() {
		fds = append(fds, b.FenceFD)
	}
	n, oobn, err := conn.WriteMsgUnix(msg, unix.UnixRights(fds...), nil)
	if err != nil {
		return fmt.Errorf("dmabuf: send: %w", err)
	}
	if n != len(msg) || oobn == 0 {
		return errors.New("dmabuf: send: short write")
	}
	return nil
}

// Recv reads one descriptor from conn. The returned Buffer owns the
// received descriptors.
func Recv(conn *net.UnixConn) (*Buffer, error) {
	msg := make([]byte, WireSize)
	oob := make([]byte, unix.CmsgSpace(2*4))
	n, oobn, _, _, err := conn.ReadMsgUnix(msg, oob)
	if err != nil {
		return nil, fmt.Errorf("dmabuf: recv: %w", err)
	}
	fds, err := parseRights(oob[:oobn])
	if err != nil {
		return nil, err
	}
	closeAll := func() {
		for _, fd := range fds {
			unix.Close(fd)
		}
	}
	b := new(Buffer)
	if err := b.UnmarshalBinary(msg[:n]); err != nil {
		closeAll()
		return nil, err
	}
	want := 1
	if b.HasFence() {
		want = 2
	}
	if len(fds) != want {
		closeAll()
		return nil, fmt.Errorf("dmabuf: recv: got %d descriptors, want %d", len(fds), want)
	}
	b.FD = fds[0]
	if want == 2 {
		b.FenceFD = fds[1]
	}
	return b, nil
}

func parseRights(oob []byte) ([]int, error) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("dmabuf: recv: %w", err)
	}
	var fds []int
	for _, m := range msgs {
		rights, err := unix.ParseUnixRights(&m)
		if err != nil {
			continue
		}
		fds = append(fds, rights...)
	}
	return fds, nil
}
