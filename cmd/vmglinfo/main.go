// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gioui.org/vmdisplay/gpu"
)

var (
	configPath = flag.String("config", "", "TOML configuration file")
	nodePath   = flag.String("node", "", "render node (default "+gpu.DefaultNode+")")
	modeName   = flag.String("mode", "", "composition mode: headless or windowed")
	profile    = flag.String("profile", "", "context profile: any, core or es")
	backend    = flag.String("backend", "", "backend: auto, native or software")
	selftest   = flag.Bool("selftest", false, "composite a test pattern and check it")
	verbose    = flag.Bool("v", false, "log to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, mainUsage)
	}
	flag.Parse()
	if err := mainErr(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "vmglinfo: %v\n", err)
		os.Exit(1)
	}
}

func mainErr(w io.Writer) error {
	if flag.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(flag.Args(), " "))
	}
	if *verbose {
		gpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Mode != gpu.ModeHeadless {
		return errors.New("only headless mode can be probed without a window")
	}
	dev, err := gpu.InitDevice(cfg.Node, cfg.Mode, cfg.Options()...)
	if err != nil {
		return err
	}
	defer dev.Release()
	ctx, err := dev.CreateContext(cfg.ContextOptions())
	if err != nil {
		return err
	}
	defer ctx.Destroy()
	var surf *gpu.Surface
	if !dev.QueryExtensionSupport("surfaceless") {
		if surf, err = ctx.NewPbufferSurface(patternSize, patternSize); err != nil {
			return err
		}
	}
	if err := ctx.MakeCurrent(surf); err != nil {
		return err
	}
	if err := printInfo(w, dev, ctx); err != nil {
		return err
	}
	if *selftest {
		if err := runSelftest(ctx); err != nil {
			return fmt.Errorf("selftest: %w", err)
		}
		fmt.Fprintln(w, "selftest: ok")
	}
	return nil
}

// loadConfig reads -config, if any, and applies the flags over it.
func loadConfig() (gpu.Config, error) {
	cfg := gpu.DefaultConfig()
	if *configPath != "" {
		c, err := gpu.LoadConfig(*configPath)
		if err != nil {
			return gpu.Config{}, err
		}
		cfg = c
	}
	if *nodePath != "" {
		cfg.Node = *nodePath
	}
	if *modeName != "" {
		if err := cfg.Mode.UnmarshalText([]byte(*modeName)); err != nil {
			return gpu.Config{}, err
		}
	}
	if *profile != "" {
		if err := cfg.Profile.UnmarshalText([]byte(*profile)); err != nil {
			return gpu.Config{}, err
		}
	}
	if *backend != "" {
		if err := cfg.Backend.UnmarshalText([]byte(*backend)); err != nil {
			return gpu.Config{}, err
		}
	}
	return cfg, cfg.Validate()
}

func printInfo(w io.Writer, dev *gpu.Device, ctx *gpu.Context) error {
	info, err := ctx.Info()
	if err != nil {
		return err
	}
	v := ctx.Version().Version
	fmt.Fprintf(w, "node:         %s\n", dev.Node())
	fmt.Fprintf(w, "backend:      %s\n", dev.Backend())
	fmt.Fprintf(w, "context:      %s %d.%d\n", v.Profile, v.Major, v.Minor)
	fmt.Fprintf(w, "vendor:       %s\n", info.Vendor)
	fmt.Fprintf(w, "renderer:     %s\n", info.Renderer)
	fmt.Fprintf(w, "version:      %s\n", info.Version)
	fmt.Fprintf(w, "glsl:         %s\n", info.ShadingLanguage)
	fmt.Fprintf(w, "capabilities: %s\n", strings.Join(dev.Capabilities(), " "))
	fmt.Fprintf(w, "display extensions:\n")
	for _, e := range dev.Extensions() {
		fmt.Fprintf(w, "\t%s\n", e)
	}
	fmt.Fprintf(w, "GL extensions:\n")
	for _, e := range info.Extensions {
		fmt.Fprintf(w, "\t%s\n", e)
	}
	return nil
}
