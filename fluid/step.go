package fluid

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Step advances the fields by dt seconds. The stages run in a fixed order and each
// one reads what the previous one wrote.
func (s *Simulation) Step(dt float32) error {
	if err := s.ready(); err != nil {
		return err
	}
	passes := []struct {
		stage Stage
		run   func() error
	}{
		{StageCurl, s.ComputeCurl},
		{StageVorticity, func() error { return s.ApplyVorticity(dt) }},
		{StageDivergence, s.ComputeDivergence},
		{StagePressure, s.SolvePressure},
		{StageGradientSubtract, s.SubtractPressureGradient},
		{StageAdvection, func() error { return s.AdvectVelocity(dt) }},
		{StageAdvection, func() error { return s.AdvectDye(dt) }},
		{StageBlur, s.BlurDye},
	}
	for _, p := range passes {
		start := time.Now()
		if err := p.run(); err != nil {
			return fmt.Errorf("%s pass: %w", p.stage, err)
		}
		if s.observer != nil {
			s.observer.StageDone(p.stage, time.Since(start))
		}
	}
	return nil
}

func (s *Simulation) draw(stage Stage, u Uniforms, target *Field) error {
	return s.backend.Draw(s.programs[stage], u, target.Texture())
}

// drawSwap renders into d's write half and swaps.
func (s *Simulation) drawSwap(stage Stage, u Uniforms, d *DoubleField) error {
	if err := s.draw(stage, u, d.Write()); err != nil {
		return err
	}
	d.Swap()
	return nil
}

// ComputeCurl writes the scalar curl of velocity into the curl field.
func (s *Simulation) ComputeCurl() error {
	if err := s.ready(); err != nil {
		return err
	}
	v := s.fields.Velocity
	return s.draw(StageCurl, Uniforms{
		"texelSize": v.TexelSize(),
		"uVelocity": v.Read().Texture(),
	}, s.fields.Curl)
}

// ApplyVorticity adds the confinement force derived from the curl field to velocity.
func (s *Simulation) ApplyVorticity(dt float32) error {
	if err := s.ready(); err != nil {
		return err
	}
	v := s.fields.Velocity
	return s.drawSwap(StageVorticity, Uniforms{
		"texelSize": v.TexelSize(),
		"uVelocity": v.Read().Texture(),
		"uCurl":     s.fields.Curl.Texture(),
		"curl":      s.cfg.Fluid.Curl,
		"dt":        dt,
	}, v)
}

// ComputeDivergence writes the divergence of velocity into the divergence field.
func (s *Simulation) ComputeDivergence() error {
	if err := s.ready(); err != nil {
		return err
	}
	v := s.fields.Velocity
	return s.draw(StageDivergence, Uniforms{
		"texelSize": v.TexelSize(),
		"uVelocity": v.Read().Texture(),
	}, s.fields.Divergence)
}

// SolvePressure scales the previous pressure by fluid.pressure and then runs the
// configured number of Jacobi iterations against the divergence field.
func (s *Simulation) SolvePressure() error {
	if err := s.ready(); err != nil {
		return err
	}
	p := s.fields.Pressure
	if err := s.drawSwap(StageClear, Uniforms{
		"uTexture": p.Read().Texture(),
		"value":    s.cfg.Fluid.Pressure,
	}, p); err != nil {
		return err
	}

	v := s.fields.Velocity
	for i := 0; i < s.cfg.Fluid.PressureIterations; i++ {
		if err := s.drawSwap(StagePressure, Uniforms{
			"texelSize":   v.TexelSize(),
			"uDivergence": s.fields.Divergence.Texture(),
			"uPressure":   p.Read().Texture(),
		}, p); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
	}
	return nil
}

// SubtractPressureGradient projects velocity onto a divergence-free field.
func (s *Simulation) SubtractPressureGradient() error {
	if err := s.ready(); err != nil {
		return err
	}
	v := s.fields.Velocity
	return s.drawSwap(StageGradientSubtract, Uniforms{
		"texelSize": v.TexelSize(),
		"uPressure": s.fields.Pressure.Read().Texture(),
		"uVelocity": v.Read().Texture(),
	}, v)
}

// AdvectVelocity moves velocity through itself and applies velocity dissipation.
func (s *Simulation) AdvectVelocity(dt float32) error {
	if err := s.ready(); err != nil {
		return err
	}
	v := s.fields.Velocity
	return s.drawSwap(StageAdvection, s.advectionUniforms(v, dt, s.cfg.Fluid.VelocityDissipation), v)
}

// AdvectDye moves dye through the updated velocity and applies density dissipation.
func (s *Simulation) AdvectDye(dt float32) error {
	if err := s.ready(); err != nil {
		return err
	}
	d := s.fields.Dye
	return s.drawSwap(StageAdvection, s.advectionUniforms(d, dt, s.cfg.Fluid.DensityDissipation), d)
}

func (s *Simulation) advectionUniforms(source *DoubleField, dt, dissipation float32) Uniforms {
	v := s.fields.Velocity
	u := Uniforms{
		"texelSize":   v.TexelSize(),
		"uVelocity":   v.Read().Texture(),
		"uSource":     source.Read().Texture(),
		"dt":          dt,
		"dissipation": dissipation,
	}
	if !s.formats.LinearFiltering {
		u["dyeTexelSize"] = source.TexelSize()
	}
	return u
}

// BlurDye writes a 5x5 box-filtered copy of dye into the blur field. It does not
// feed back into the simulation.
func (s *Simulation) BlurDye() error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.cfg.Fluid.Blur {
		return nil
	}
	d := s.fields.Dye
	return s.draw(StageBlur, Uniforms{
		"texelSize": d.TexelSize(),
		"uTexture":  d.Read().Texture(),
	}, s.fields.Blur)
}

// Render composites the dye (or its blurred copy) onto the visible surface.
func (s *Simulation) Render() error {
	if err := s.ready(); err != nil {
		return err
	}
	start := time.Now()
	src := s.fields.Dye.Read()
	if s.cfg.Fluid.Blur {
		src = s.fields.Blur
	}
	blend := BlendNone
	if s.cfg.Fluid.Transparent {
		blend = BlendPremultiplied
	}
	err := s.backend.Present(s.programs[StageDisplay], Uniforms{
		"texelSize": mgl32.Vec2{1 / float32(s.width), 1 / float32(s.height)},
		"uTexture":  src.Texture(),
	}, blend)
	if err != nil {
		return fmt.Errorf("display pass: %w", err)
	}
	if s.observer != nil {
		s.observer.StageDone(StageDisplay, time.Since(start))
	}
	return nil
}

// SetShading switches the display program's lighting pass.
func (s *Simulation) SetShading(on bool) error {
	if s.state == StateClosed {
		return ErrClosed
	}
	var keywords []string
	if on {
		keywords = append(keywords, KeywordShading)
	}
	p, err := s.backend.Program(StageDisplay, keywords...)
	if err != nil {
		return fmt.Errorf("compiling display program: %w", err)
	}
	s.programs[StageDisplay] = p
	s.cfg.Fluid.Shading = on
	return nil
}
