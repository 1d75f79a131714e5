package fluid

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/fluidbg/config"
)

// Effect is the host-facing fluid background. It never reports failures to the
// host: if setup fails the effect is disabled and every method is a no-op, and if
// a frame fails the loop stops and later frames do nothing.
type Effect struct {
	sim   *Simulation
	input *InputTracker
	err   error
}

// NewEffect builds and starts a Simulation on b. On failure it logs, closes b and
// returns a disabled Effect.
func NewEffect(b Backend, cfg *config.Config, width, height int, rng *rand.Rand, now time.Time) *Effect {
	sim, err := New(b, cfg, width, height, rng)
	if err != nil {
		slog.Warn("fluid effect disabled", "error", err)
		if cerr := b.Close(); cerr != nil {
			slog.Warn("closing backend", "error", cerr)
		}
		return &Effect{err: err}
	}
	sim.Start(now)
	return &Effect{sim: sim, input: NewInputTracker(cfg, rng)}
}

// Enabled reports whether setup succeeded and the effect has not been closed.
func (e *Effect) Enabled() bool {
	return e.sim != nil && e.sim.State() != StateClosed
}

// Running reports whether frames are still being produced.
func (e *Effect) Running() bool {
	return e.sim != nil && e.sim.State() == StateRunning
}

// Err returns the setup error or the error that stopped the loop.
func (e *Effect) Err() error {
	if e.err != nil {
		return e.err
	}
	if e.sim != nil {
		return e.sim.Err()
	}
	return nil
}

// Simulation returns the underlying simulation, or nil when disabled.
func (e *Effect) Simulation() *Simulation { return e.sim }

// Input returns the input tracker, or nil when disabled.
func (e *Effect) Input() *InputTracker { return e.input }

// Frame advances and draws one frame. It reports whether the effect is still
// running afterwards.
func (e *Effect) Frame(now time.Time) bool {
	if !e.Running() {
		return false
	}
	// Frame already logged and recorded the failure.
	_ = e.sim.Frame(now)
	return e.Running()
}

func (e *Effect) apply(sp Splat) {
	if !e.Running() {
		return
	}
	if err := e.sim.Splat(sp); err != nil {
		e.sim.stop(err)
	}
}

// PointerMove handles a pointer move to p in host pixels.
func (e *Effect) PointerMove(p Point, now time.Time) {
	if !e.Running() {
		return
	}
	if sp, ok := e.input.PointerMove(p, now); ok {
		e.apply(sp)
	}
}

// Click queues a burst of splats at p in host pixels.
func (e *Effect) Click(p Point, now time.Time) {
	if !e.Running() {
		return
	}
	for _, ds := range e.input.Click(p) {
		e.sim.Schedule(ds.Splat, now.Add(ds.Delay))
	}
}

// Touch handles a touch move with every active touch in host pixels.
func (e *Effect) Touch(touches []Point) {
	if !e.Running() {
		return
	}
	for _, sp := range e.input.Touch(touches) {
		e.apply(sp)
	}
}

// TouchEnd resets the drag position.
func (e *Effect) TouchEnd() {
	if e.input != nil {
		e.input.TouchEnd()
	}
}

// Resize follows the surface to a new device pixel size.
func (e *Effect) Resize(width, height int) {
	if !e.Running() {
		return
	}
	if err := e.sim.Resize(width, height); err != nil && !errors.Is(err, ErrClosed) {
		slog.Warn("fluid resize failed", "error", err)
	}
}

// Close releases every resource. It is safe to call more than once and on a
// disabled effect.
func (e *Effect) Close() {
	if e.sim == nil {
		return
	}
	if err := e.sim.Close(); err != nil {
		slog.Warn("closing fluid simulation", "error", err)
	}
}
