// SPDX-License-Identifier: Unlicense OR MIT

package egl

import "testing"

func TestErrorString(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{BAD_MATCH, "EGL_BAD_MATCH"},
		{BAD_ACCESS, "EGL_BAD_ACCESS"},
		{CONTEXT_LOST, "EGL_CONTEXT_LOST"},
		{0x1234, "EGL error 0x1234"},
	}
	for _, test := range tests {
		if got := ErrorString(test.code); got != test.want {
			t.Errorf("ErrorString(0x%x) = %q, expected %q", test.code, got, test.want)
		}
	}
}
