// Package config provides configuration loading and access for the fluid effect.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Fluid     FluidConfig     `yaml:"fluid"`
	Splats    SplatsConfig    `yaml:"splats"`
	GPU       GPUConfig       `yaml:"gpu"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	TargetFPS  int     `yaml:"target_fps"`
	PixelRatio float64 `yaml:"pixel_ratio"` // Device pixels per input pixel (0 = 1)
	Title      string  `yaml:"title"`
}

// Color is an RGB triple in [0,1].
type Color struct {
	R float32 `yaml:"r"`
	G float32 `yaml:"g"`
	B float32 `yaml:"b"`
}

// FluidConfig holds the simulation options accepted at construction.
type FluidConfig struct {
	SimResolution       int     `yaml:"sim_resolution"`       // Base grid resolution for physics fields
	DyeResolution       int     `yaml:"dye_resolution"`       // Base grid resolution for the visible color field
	DensityDissipation  float32 `yaml:"density_dissipation"`  // Decay rate for dye during advection
	VelocityDissipation float32 `yaml:"velocity_dissipation"` // Decay rate for velocity during advection
	Pressure            float32 `yaml:"pressure"`             // Fraction of last frame's pressure kept as the Jacobi start
	PressureIterations  int     `yaml:"pressure_iterations"`
	Curl                float32 `yaml:"curl"` // Vorticity confinement strength
	SplatRadius         float32 `yaml:"splat_radius"`
	SplatForce          float32 `yaml:"splat_force"`
	Shading             bool    `yaml:"shading"`
	ColorUpdateSpeed    float32 `yaml:"color_update_speed"` // Max pointer color refreshes per second
	ColorPalette        []Color `yaml:"color_palette"`
	Transparent         bool    `yaml:"transparent"`
	MaxDT               float32 `yaml:"max_dt"` // Frame dt clamp in seconds
	Blur                bool    `yaml:"blur"`   // Run the display smoothing pass
}

// SplatsConfig holds the synthetic and input-driven splat constants.
type SplatsConfig struct {
	InitialCount    int     `yaml:"initial_count"`
	InitialForce    float32 `yaml:"initial_force"`
	Auto            bool    `yaml:"auto"`
	AutoFirstDelay  float64 `yaml:"auto_first_delay"`  // Seconds before the first auto splat
	AutoMinInterval float64 `yaml:"auto_min_interval"` // Seconds
	AutoJitter      float64 `yaml:"auto_jitter"`       // Extra random seconds added to each interval
	AutoForce       float32 `yaml:"auto_force"`
	BurstCount      int     `yaml:"burst_count"`
	BurstPower      float32 `yaml:"burst_power"`
	BurstStagger    float64 `yaml:"burst_stagger"` // Seconds between burst splats
	TouchJitter     float32 `yaml:"touch_jitter"`  // Random delta range for secondary touches
}

// GPUConfig holds rendering backend parameters.
type GPUConfig struct {
	Precision       string `yaml:"precision"`        // "half" or "float"
	LinearFiltering string `yaml:"linear_filtering"` // "auto", "on" or "off"
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int     `yaml:"perf_window"`  // Frames in the rolling perf window
	LogInterval float64 `yaml:"log_interval"` // Seconds between perf log lines
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PixelRatio      float32
	AutoFirstDelay  time.Duration
	AutoMinInterval time.Duration
	AutoJitter      time.Duration
	BurstStagger    time.Duration
	LogInterval     time.Duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks option ranges that would otherwise break the simulation.
func (c *Config) Validate() error {
	var errs []error
	f := c.Fluid
	if f.SimResolution <= 0 {
		errs = append(errs, fmt.Errorf("fluid.sim_resolution must be positive, got %d", f.SimResolution))
	}
	if f.DyeResolution <= 0 {
		errs = append(errs, fmt.Errorf("fluid.dye_resolution must be positive, got %d", f.DyeResolution))
	}
	if f.DensityDissipation < 0 || f.VelocityDissipation < 0 {
		errs = append(errs, errors.New("fluid dissipation must not be negative"))
	}
	if f.PressureIterations < 0 {
		errs = append(errs, fmt.Errorf("fluid.pressure_iterations must not be negative, got %d", f.PressureIterations))
	}
	if f.SplatRadius <= 0 {
		errs = append(errs, fmt.Errorf("fluid.splat_radius must be positive, got %g", f.SplatRadius))
	}
	if len(f.ColorPalette) == 0 {
		errs = append(errs, errors.New("fluid.color_palette must not be empty"))
	}
	switch c.GPU.Precision {
	case "half", "float":
	default:
		errs = append(errs, fmt.Errorf("gpu.precision must be half or float, got %q", c.GPU.Precision))
	}
	switch c.GPU.LinearFiltering {
	case "auto", "on", "off":
	default:
		errs = append(errs, fmt.Errorf("gpu.linear_filtering must be auto, on or off, got %q", c.GPU.LinearFiltering))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.PixelRatio = float32(c.Screen.PixelRatio)
	if c.Derived.PixelRatio <= 0 {
		c.Derived.PixelRatio = 1
	}
	c.Derived.AutoFirstDelay = seconds(c.Splats.AutoFirstDelay)
	c.Derived.AutoMinInterval = seconds(c.Splats.AutoMinInterval)
	c.Derived.AutoJitter = seconds(c.Splats.AutoJitter)
	c.Derived.BurstStagger = seconds(c.Splats.BurstStagger)
	c.Derived.LogInterval = seconds(c.Telemetry.LogInterval)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
