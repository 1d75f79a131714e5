package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fluidbg/fluid"
)

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Stages        map[fluid.Stage]time.Duration
}

// PerfCollector tracks per-stage frame timings over a rolling window.
// It implements fluid.StageObserver.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentStages map[fluid.Stage]time.Duration
	frameStart    time.Time
	frames        int64

	// Wall time between presented frames
	lastFrameTime time.Time
	frameInterval time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentStages: make(map[fluid.Stage]time.Duration),
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentStages = make(map[fluid.Stage]time.Duration)
}

// StageDone accumulates the duration of one pipeline stage in the current frame.
// Stages that run more than once per frame (advection) are summed.
func (p *PerfCollector) StageDone(stage fluid.Stage, d time.Duration) {
	p.currentStages[stage] += d
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	p.record(PerfSample{
		FrameDuration: time.Since(p.frameStart),
		Stages:        p.currentStages,
	})
}

func (p *PerfCollector) record(s PerfSample) {
	p.samples[p.writeIndex] = s
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.frames++
}

// Frames returns the total number of frames recorded.
func (p *PerfCollector) Frames() int64 { return p.frames }

// RecordPresent records the interval between presented frames in windowed mode.
func (p *PerfCollector) RecordPresent() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameInterval = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Frame timing
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration
	StdFrameDuration time.Duration

	// Stage breakdown (average durations)
	StageAvg map[fluid.Stage]time.Duration

	// Stage percentages of total frame time
	StagePct map[fluid.Stage]float64

	// Throughput
	FramesPerSecond float64

	// Present timing (windowed mode)
	PresentInterval time.Duration
	FPS             float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameInterval > 0 {
		fps = float64(time.Second) / float64(p.frameInterval)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			StageAvg:        make(map[fluid.Stage]time.Duration),
			StagePct:        make(map[fluid.Stage]float64),
			PresentInterval: p.frameInterval,
			FPS:             fps,
		}
	}

	durations := make([]float64, p.sampleCount)
	var minFrame, maxFrame time.Duration
	stageSum := make(map[fluid.Stage]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		durations[i] = float64(s.FrameDuration)

		if i == 0 || s.FrameDuration < minFrame {
			minFrame = s.FrameDuration
		}
		if s.FrameDuration > maxFrame {
			maxFrame = s.FrameDuration
		}
		for stage, d := range s.Stages {
			stageSum[stage] += d
		}
	}

	mean, std := stat.MeanStdDev(durations, nil)
	if p.sampleCount < 2 {
		std = 0
	}
	avgFrame := time.Duration(mean)

	stageAvg := make(map[fluid.Stage]time.Duration)
	stagePct := make(map[fluid.Stage]float64)
	for stage, sum := range stageSum {
		stageAvg[stage] = sum / time.Duration(p.sampleCount)
		if avgFrame > 0 {
			stagePct[stage] = float64(stageAvg[stage]) / float64(avgFrame) * 100
		}
	}

	var perSec float64
	if avgFrame > 0 {
		perSec = float64(time.Second) / float64(avgFrame)
	}

	return PerfStats{
		AvgFrameDuration: avgFrame,
		MinFrameDuration: minFrame,
		MaxFrameDuration: maxFrame,
		StdFrameDuration: time.Duration(std),
		StageAvg:         stageAvg,
		StagePct:         stagePct,
		FramesPerSecond:  perSec,
		PresentInterval:  p.frameInterval,
		FPS:              fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrameDuration.Microseconds(),
		"min_frame_us", s.MinFrameDuration.Microseconds(),
		"max_frame_us", s.MaxFrameDuration.Microseconds(),
		"std_frame_us", s.StdFrameDuration.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, stage := range fluid.Stages() {
		if pct, ok := s.StagePct[stage]; ok && pct > 0.1 {
			attrs = append(attrs, stage.String()+"_pct", float64(int(pct*10))/10)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for stage, pct := range s.StagePct {
		attrs = append(attrs, slog.Float64(stage.String()+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd           int64   `csv:"window_end"`
	AvgFrameUS          int64   `csv:"avg_frame_us"`
	MinFrameUS          int64   `csv:"min_frame_us"`
	MaxFrameUS          int64   `csv:"max_frame_us"`
	StdFrameUS          int64   `csv:"std_frame_us"`
	FramesPerSec        float64 `csv:"frames_per_sec"`
	FPS                 float64 `csv:"fps"`
	CurlPct             float64 `csv:"curl_pct"`
	VorticityPct        float64 `csv:"vorticity_pct"`
	DivergencePct       float64 `csv:"divergence_pct"`
	PressurePct         float64 `csv:"pressure_pct"`
	GradientSubtractPct float64 `csv:"gradient_subtract_pct"`
	AdvectionPct        float64 `csv:"advection_pct"`
	BlurPct             float64 `csv:"blur_pct"`
	DisplayPct          float64 `csv:"display_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:           windowEnd,
		AvgFrameUS:          s.AvgFrameDuration.Microseconds(),
		MinFrameUS:          s.MinFrameDuration.Microseconds(),
		MaxFrameUS:          s.MaxFrameDuration.Microseconds(),
		StdFrameUS:          s.StdFrameDuration.Microseconds(),
		FramesPerSec:        s.FramesPerSecond,
		FPS:                 s.FPS,
		CurlPct:             s.StagePct[fluid.StageCurl],
		VorticityPct:        s.StagePct[fluid.StageVorticity],
		DivergencePct:       s.StagePct[fluid.StageDivergence],
		PressurePct:         s.StagePct[fluid.StagePressure],
		GradientSubtractPct: s.StagePct[fluid.StageGradientSubtract],
		AdvectionPct:        s.StagePct[fluid.StageAdvection],
		BlurPct:             s.StagePct[fluid.StageBlur],
		DisplayPct:          s.StagePct[fluid.StageDisplay],
	}
}
