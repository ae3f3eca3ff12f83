// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/vmdisplay/gpu"
)

func setFlag(t *testing.T, p *string, v string) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vm.toml")
	conf := "node = \"/dev/null\"\nbackend = \"native\"\nfence_timeout = \"250ms\"\n"
	require.NoError(t, os.WriteFile(path, []byte(conf), 0o644))
	setFlag(t, configPath, path)
	setFlag(t, backend, "software")
	setFlag(t, profile, "es")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/dev/null", cfg.Node)
	assert.Equal(t, gpu.BackendSoftware, cfg.Backend)
	assert.Equal(t, gpu.ProfileES, cfg.Profile)
	assert.Equal(t, gpu.Duration(250*time.Millisecond), cfg.FenceTimeout)
}

func TestLoadConfigErrors(t *testing.T) {
	setFlag(t, backend, "vulkan")
	_, err := loadConfig()
	assert.Error(t, err)
}

func TestSoftwareInfo(t *testing.T) {
	setFlag(t, nodePath, "/dev/null")
	setFlag(t, backend, "software")
	old := *selftest
	*selftest = true
	defer func() { *selftest = old }()

	var out bytes.Buffer
	require.NoError(t, mainErr(&out))
	assert.Contains(t, out.String(), "backend:      software")
	assert.Contains(t, out.String(), "renderer:     swgl")
	assert.Contains(t, out.String(), "selftest: ok")
}
