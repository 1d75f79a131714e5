package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Fluid.SimResolution != 128 || cfg.Fluid.DyeResolution != 1024 {
		t.Errorf("expected resolutions 128/1024, got %d/%d", cfg.Fluid.SimResolution, cfg.Fluid.DyeResolution)
	}
	if cfg.Fluid.PressureIterations != 20 {
		t.Errorf("expected 20 pressure iterations, got %d", cfg.Fluid.PressureIterations)
	}
	if len(cfg.Fluid.ColorPalette) != 4 {
		t.Errorf("expected 4 palette colors, got %d", len(cfg.Fluid.ColorPalette))
	}
	if cfg.Derived.AutoMinInterval != 600*time.Millisecond {
		t.Errorf("expected auto interval 600ms, got %v", cfg.Derived.AutoMinInterval)
	}
	if cfg.Derived.BurstStagger != 30*time.Millisecond {
		t.Errorf("expected burst stagger 30ms, got %v", cfg.Derived.BurstStagger)
	}
	if cfg.Derived.PixelRatio != 1 {
		t.Errorf("expected pixel ratio 1, got %f", cfg.Derived.PixelRatio)
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "fluid:\n  curl: 5\n  shading: false\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Fluid.Curl != 5 {
		t.Errorf("expected curl 5, got %f", cfg.Fluid.Curl)
	}
	if cfg.Fluid.Shading {
		t.Error("expected shading disabled")
	}
	// Untouched fields keep defaults
	if cfg.Fluid.SplatForce != 6000 {
		t.Errorf("expected default splat force, got %f", cfg.Fluid.SplatForce)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero sim resolution", func(c *Config) { c.Fluid.SimResolution = 0 }, "sim_resolution"},
		{"negative dissipation", func(c *Config) { c.Fluid.DensityDissipation = -1 }, "dissipation"},
		{"empty palette", func(c *Config) { c.Fluid.ColorPalette = nil }, "color_palette"},
		{"bad precision", func(c *Config) { c.GPU.Precision = "double" }, "precision"},
		{"bad filtering", func(c *Config) { c.GPU.LinearFiltering = "maybe" }, "linear_filtering"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Fluid.Curl = 12

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing yaml: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if loaded.Fluid.Curl != 12 {
		t.Errorf("expected curl 12 after reload, got %f", loaded.Fluid.Curl)
	}
}
