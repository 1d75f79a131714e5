package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/fluidbg/fluid"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StageDone(fluid.StageCurl, 100*time.Microsecond)
		pc.StageDone(fluid.StagePressure, 200*time.Microsecond)
		time.Sleep(300 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration")
	}
	if got := stats.StageAvg[fluid.StageCurl]; got != 100*time.Microsecond {
		t.Errorf("curl avg = %v, want 100µs", got)
	}
	if _, ok := stats.StageAvg[fluid.StagePressure]; !ok {
		t.Error("expected pressure stage to be tracked")
	}
	if pc.Frames() != 5 {
		t.Errorf("expected 5 frames, got %d", pc.Frames())
	}
}

func TestPerfCollector_RepeatedStageSums(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartFrame()
	pc.StageDone(fluid.StageAdvection, 40*time.Microsecond)
	pc.StageDone(fluid.StageAdvection, 60*time.Microsecond)
	pc.EndFrame()

	if got := pc.Stats().StageAvg[fluid.StageAdvection]; got != 100*time.Microsecond {
		t.Errorf("advection avg = %v, want both passes summed", got)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	// Only the most recent window counts toward the average.
	for i := 0; i < 5; i++ {
		pc.record(PerfSample{FrameDuration: time.Second})
	}
	for i := 0; i < 5; i++ {
		pc.record(PerfSample{FrameDuration: time.Millisecond})
	}

	stats := pc.Stats()
	if stats.AvgFrameDuration != time.Millisecond {
		t.Errorf("expected old samples evicted, avg %v", stats.AvgFrameDuration)
	}
	if stats.FramesPerSecond != 1000 {
		t.Errorf("expected 1000 frames per second, got %v", stats.FramesPerSecond)
	}
	if pc.Frames() != 10 {
		t.Errorf("expected 10 total frames, got %d", pc.Frames())
	}
}

func TestPerfCollector_StdDev(t *testing.T) {
	pc := NewPerfCollector(4)
	for _, d := range []time.Duration{2, 4, 4, 6} {
		pc.record(PerfSample{FrameDuration: d * time.Millisecond})
	}
	stats := pc.Stats()
	if stats.AvgFrameDuration != 4*time.Millisecond {
		t.Errorf("avg = %v", stats.AvgFrameDuration)
	}
	// Sample standard deviation of {2,4,4,6} is sqrt(8/3).
	want := math.Sqrt(8.0/3) * float64(time.Millisecond)
	if got := float64(stats.StdFrameDuration); math.Abs(got-want) > 1e3 {
		t.Errorf("std = %v, want %v", stats.StdFrameDuration, time.Duration(want))
	}
	if stats.MinFrameDuration != 2*time.Millisecond || stats.MaxFrameDuration != 6*time.Millisecond {
		t.Errorf("min/max = %v/%v", stats.MinFrameDuration, stats.MaxFrameDuration)
	}
}

func TestPerfCollector_StagePercentages(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 5; i++ {
		pc.record(PerfSample{
			FrameDuration: time.Millisecond,
			Stages: map[fluid.Stage]time.Duration{
				fluid.StageCurl:     100 * time.Microsecond,
				fluid.StagePressure: 500 * time.Microsecond,
			},
		})
	}

	stats := pc.Stats()
	if pct := stats.StagePct[fluid.StagePressure]; math.Abs(pct-50) > 1e-9 {
		t.Errorf("pressure pct = %v, want 50", pct)
	}
	if stats.StagePct[fluid.StagePressure] <= stats.StagePct[fluid.StageCurl] {
		t.Error("expected pressure to take the larger share")
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgFrameDuration != 0 {
		t.Error("expected zero avg frame duration for empty collector")
	}
	if stats.StageAvg == nil || stats.StagePct == nil {
		t.Error("expected non-nil stage maps")
	}
}

func TestPerfCollector_PresentTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordPresent()
	time.Sleep(16 * time.Millisecond)
	pc.RecordPresent()

	stats := pc.Stats()

	if stats.PresentInterval < 15*time.Millisecond {
		t.Errorf("expected present interval >= 15ms, got %v", stats.PresentInterval)
	}
	if stats.FPS <= 0 || stats.FPS > 67 {
		t.Errorf("expected FPS in (0, 67], got %v", stats.FPS)
	}
}
