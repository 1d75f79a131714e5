package ui

import (
	"testing"

	"github.com/pthm-cable/fluidbg/config"
)

func loadFluid(t *testing.T) *config.FluidConfig {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return &cfg.Fluid
}

func TestParamDescriptor_ApplyClamps(t *testing.T) {
	fc := loadFluid(t)
	var curl ParamDescriptor
	for _, d := range FluidParams() {
		if d.ID == "curl" {
			curl = d
		}
	}
	if curl.ID == "" {
		t.Fatal("curl slider missing")
	}

	if !curl.Apply(fc, 1000) {
		t.Error("expected a change")
	}
	if fc.Curl != curl.Max {
		t.Errorf("curl = %g, want clamped to %g", fc.Curl, curl.Max)
	}
	if curl.Apply(fc, curl.Max) {
		t.Error("writing the same value should not report a change")
	}
}

func TestParamDescriptor_IterationsRound(t *testing.T) {
	fc := loadFluid(t)
	for _, d := range FluidParams() {
		if d.ID != "pressure_iterations" {
			continue
		}
		d.Apply(fc, 7.6)
		if fc.PressureIterations != 8 {
			t.Errorf("iterations = %d, want 8", fc.PressureIterations)
		}
		return
	}
	t.Fatal("pressure_iterations slider missing")
}

func TestFluidParams_DefaultsInRange(t *testing.T) {
	fc := loadFluid(t)
	seen := make(map[string]bool)
	for _, d := range FluidParams() {
		if seen[d.ID] {
			t.Errorf("duplicate id %s", d.ID)
		}
		seen[d.ID] = true
		if v := d.Get(fc); v < d.Min || v > d.Max {
			t.Errorf("%s default %g outside [%g, %g]", d.ID, v, d.Min, d.Max)
		}
	}
}

func TestFlip_ReportsShading(t *testing.T) {
	fc := loadFluid(t)
	for _, d := range FluidToggles() {
		before := d.Get(fc)
		ch := flip(fc, d)
		if d.Get(fc) == before {
			t.Errorf("%s did not flip", d.ID)
		}
		if ch.Shading != (d.ID == "shading") {
			t.Errorf("%s: shading change = %v", d.ID, ch.Shading)
		}
	}
}
