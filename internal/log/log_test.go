// SPDX-License-Identifier: Unlicense OR MIT

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultSilent(t *testing.T) {
	l := Get()
	if l == nil {
		t.Fatal("Get returned nil")
	}
	for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), lvl) {
			t.Errorf("default logger enabled for %v", lvl)
		}
	}
}

func TestSet(t *testing.T) {
	orig := Get()
	t.Cleanup(func() { Set(orig) })

	var buf bytes.Buffer
	Set(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	With("egl").Info("context created", "version", "4.6")
	out := buf.String()
	for _, want := range []string{"component=egl", "context created", "version=4.6"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}

	Set(nil)
	if Get().Enabled(context.Background(), slog.LevelError) {
		t.Error("Set(nil) did not restore the silent logger")
	}
}

func TestWithFollowsSet(t *testing.T) {
	orig := Get()
	t.Cleanup(func() { Set(orig) })

	l := With("software").With("context", 1)
	var buf bytes.Buffer
	Set(slog.New(slog.NewTextHandler(&buf, nil)))
	l.Warn("unmap failed")
	out := buf.String()
	for _, want := range []string{"component=software", "context=1", "unmap failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
