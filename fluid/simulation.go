package fluid

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/fluidbg/config"
)

var (
	// ErrClosed is returned by operations on a closed simulation.
	ErrClosed = errors.New("fluid: simulation closed")
	// ErrStopped is returned once a frame has failed and the loop has stopped.
	ErrStopped = errors.New("fluid: simulation stopped")
)

// State is the lifecycle state of a Simulation.
type State int

const (
	StateRunning State = iota
	StateStopped
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "closed"
	}
}

// StageObserver receives the wall time of each pipeline stage.
type StageObserver interface {
	StageDone(stage Stage, d time.Duration)
}

// Simulation is the fluid background effect: fields, programs and the frame loop.
// It is not safe for concurrent use; the host drives it from one thread.
type Simulation struct {
	backend Backend
	cfg     *config.Config
	rng     *rand.Rand

	formats  FormatSet
	programs [numStages]Program
	fields   *Fields

	width, height int // surface size in device pixels

	pending  *splatQueue
	auto     autoSplatter
	observer StageObserver

	state     State
	lastFrame time.Time
	frames    int
	lastErr   error
}

// New negotiates formats, compiles every stage program and allocates all fields for
// a surface of width x height device pixels. Any failure releases what was created.
func New(b Backend, cfg *config.Config, width, height int, rng *rand.Rand) (*Simulation, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	formats, err := NegotiateFormats(b, ParsePrecision(cfg.GPU.Precision), cfg.GPU.LinearFiltering)
	if err != nil {
		return nil, fmt.Errorf("negotiating formats: %w", err)
	}

	s := &Simulation{
		backend: b,
		cfg:     cfg,
		rng:     rng,
		formats: formats,
		width:   width,
		height:  height,
		pending: newSplatQueue(),
	}

	if err := s.compilePrograms(); err != nil {
		return nil, err
	}

	if sz, ok := b.(SurfaceSizer); ok {
		sz.SetSurfaceSize(width, height)
	}
	s.fields, err = allocateFields(b, formats, cfg.Fluid.SimResolution, cfg.Fluid.DyeResolution, width, height)
	if err != nil {
		return nil, fmt.Errorf("allocating fields: %w", err)
	}

	slog.Info("fluid simulation initialized",
		"surface_w", width, "surface_h", height,
		"sim_w", s.fields.Velocity.Width(), "sim_h", s.fields.Velocity.Height(),
		"dye_w", s.fields.Dye.Width(), "dye_h", s.fields.Dye.Height(),
		"rgba", formats.RGBA.String(), "rg", formats.RG.String(), "r", formats.R.String(),
		"linear_filtering", formats.LinearFiltering,
	)
	return s, nil
}

func (s *Simulation) compilePrograms() error {
	for _, stage := range Stages() {
		var keywords []string
		switch stage {
		case StageAdvection:
			if !s.formats.LinearFiltering {
				keywords = append(keywords, KeywordManualFiltering)
			}
		case StageDisplay:
			if s.cfg.Fluid.Shading {
				keywords = append(keywords, KeywordShading)
			}
		}
		p, err := s.backend.Program(stage, keywords...)
		if err != nil {
			return fmt.Errorf("compiling %s program: %w", stage, err)
		}
		s.programs[stage] = p
	}
	return nil
}

// SetObserver installs a per-stage timing hook. nil disables timing.
func (s *Simulation) SetObserver(o StageObserver) { s.observer = o }

// Start applies the configured initial splats and schedules the first automatic
// splat. now becomes the reference time for the first frame's dt.
func (s *Simulation) Start(now time.Time) {
	if s.state != StateRunning {
		return
	}
	s.lastFrame = now
	sc := s.cfg.Splats
	for i := 0; i < sc.InitialCount; i++ {
		sp := Splat{
			X:     s.rng.Float32() * float32(s.width),
			Y:     s.rng.Float32() * float32(s.height),
			DX:    sc.InitialForce * (s.rng.Float32() - 0.5),
			DY:    sc.InitialForce * (s.rng.Float32() - 0.5),
			Color: pickColor(s.cfg.Fluid.ColorPalette, s.rng),
		}
		if err := s.Splat(sp); err != nil {
			s.stop(err)
			return
		}
	}
	if sc.Auto {
		s.auto.schedule(now.Add(s.cfg.Derived.AutoFirstDelay))
	}
}

// Frame advances the simulation to now and draws it: due delayed splats, the
// automatic splat, one Step and one Render. dt is clamped to fluid.max_dt.
// Any error or panic stops the loop; later calls return ErrStopped.
func (s *Simulation) Frame(now time.Time) (err error) {
	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateStopped:
		return ErrStopped
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame panic: %v", r)
		}
		if err != nil {
			s.stop(err)
		}
	}()

	dt := s.frameDT(now)

	for _, sp := range s.pending.due(now) {
		if err := s.Splat(sp); err != nil {
			return err
		}
	}
	if s.auto.due(now) {
		if err := s.Splat(s.auto.next(now, s.width, s.height, s.cfg, s.rng)); err != nil {
			return err
		}
		s.auto.schedule(now.Add(s.autoInterval()))
	}

	if err := s.Step(dt); err != nil {
		return err
	}
	if err := s.Render(); err != nil {
		return err
	}
	s.frames++
	return nil
}

func (s *Simulation) frameDT(now time.Time) float32 {
	dt := float32(now.Sub(s.lastFrame).Seconds())
	s.lastFrame = now
	if dt < 0 {
		dt = 0
	}
	if limit := s.cfg.Fluid.MaxDT; limit > 0 && dt > limit {
		dt = limit
	}
	return dt
}

func (s *Simulation) autoInterval() time.Duration {
	d := s.cfg.Derived.AutoMinInterval
	if j := s.cfg.Derived.AutoJitter; j > 0 {
		d += time.Duration(s.rng.Int63n(int64(j)))
	}
	return d
}

// ready reports why field operations cannot run: ErrClosed after Close, ErrStopped
// after a failure, which may have left no fields allocated.
func (s *Simulation) ready() error {
	switch {
	case s.state == StateClosed:
		return ErrClosed
	case s.state != StateRunning || s.fields == nil:
		return ErrStopped
	}
	return nil
}

func (s *Simulation) stop(err error) {
	if s.state != StateRunning {
		return
	}
	s.state = StateStopped
	s.lastErr = err
	slog.Error("fluid simulation stopped", "error", err, "frames", s.frames)
}

// Schedule queues a splat to be applied by the first frame at or after at.
func (s *Simulation) Schedule(sp Splat, at time.Time) {
	if s.state == StateClosed {
		return
	}
	s.pending.push(sp, at)
}

// Resize reallocates every field for a new surface size. Simulation state is lost.
// Calling it with the current size does nothing.
func (s *Simulation) Resize(width, height int) error {
	if s.state == StateClosed {
		return ErrClosed
	}
	if width == s.width && height == s.height {
		return nil
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	s.fields.release(s.backend)
	s.fields = nil
	s.width, s.height = width, height
	if sz, ok := s.backend.(SurfaceSizer); ok {
		sz.SetSurfaceSize(width, height)
	}

	fields, err := allocateFields(s.backend, s.formats, s.cfg.Fluid.SimResolution, s.cfg.Fluid.DyeResolution, width, height)
	if err != nil {
		err = fmt.Errorf("reallocating fields: %w", err)
		s.stop(err)
		return err
	}
	s.fields = fields
	slog.Debug("fluid fields resized", "surface_w", width, "surface_h", height)
	return nil
}

// Close releases all fields and the backend's programs. Pending splats are dropped.
func (s *Simulation) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	s.fields.release(s.backend)
	s.fields = nil
	s.pending = nil
	return s.backend.Close()
}

// State returns the lifecycle state.
func (s *Simulation) State() State { return s.state }

// Err returns the error that stopped the loop, if any.
func (s *Simulation) Err() error { return s.lastErr }

// Frames returns how many frames have completed.
func (s *Simulation) Frames() int { return s.frames }

// Fields returns the live field set, or nil once closed.
func (s *Simulation) Fields() *Fields { return s.fields }

// Formats returns the negotiated texture formats.
func (s *Simulation) Formats() FormatSet { return s.formats }

// SurfaceSize returns the surface size in device pixels.
func (s *Simulation) SurfaceSize() (int, int) { return s.width, s.height }

// Pending returns the number of queued delayed splats.
func (s *Simulation) Pending() int {
	if s.pending == nil {
		return 0
	}
	return s.pending.len()
}

// Config returns the configuration the simulation reads its parameters from.
// Changes to the fluid section take effect on the next frame.
func (s *Simulation) Config() *config.Config { return s.cfg }
