// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the file form of the device and context options.
//
//	node = "/dev/dri/renderD128"
//	mode = "headless"
//	backend = "auto"
//	profile = "es"
//	debug = false
//	fence_timeout = "2s"
type Config struct {
	Node         string   `toml:"node"`
	Mode         Mode     `toml:"mode"`
	Backend      Backend  `toml:"backend"`
	Profile      Profile  `toml:"profile"`
	Debug        bool     `toml:"debug"`
	FenceTimeout Duration `toml:"fence_timeout"`
}

// Duration is a time.Duration written as a string such as "1.5s".
type Duration time.Duration

// DefaultNode is the first render node of a system.
const DefaultNode = "/dev/dri/renderD128"

// DefaultConfig returns the configuration used for missing keys.
func DefaultConfig() Config {
	return Config{
		Node:    DefaultNode,
		Mode:    ModeHeadless,
		Backend: BackendAuto,
		Profile: ProfileAny,
	}
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	c, err := ParseConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseConfig decodes a TOML configuration over DefaultConfig. Unknown
// keys are errors.
func ParseConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("gpu: config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the values the decoder cannot.
func (c Config) Validate() error {
	switch {
	case c.Node == "":
		return fmt.Errorf("gpu: config: empty render node path")
	case c.FenceTimeout < 0:
		return fmt.Errorf("gpu: config: negative fence timeout %s", time.Duration(c.FenceTimeout))
	}
	return nil
}

// Options returns the device options of c.
func (c Config) Options() []Option {
	return []Option{
		WithBackend(c.Backend),
		WithFenceTimeout(time.Duration(c.FenceTimeout)),
	}
}

// ContextOptions returns the context options of c.
func (c Config) ContextOptions() ContextOptions {
	return ContextOptions{Profile: c.Profile, Debug: c.Debug}
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
