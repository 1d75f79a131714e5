package renderer

import (
	"strings"
	"testing"

	"github.com/pthm-cable/fluidbg/fluid"
)

func TestFragmentSource_EveryStage(t *testing.T) {
	for _, stage := range fluid.Stages() {
		src, err := fragmentSource(stage, nil)
		if err != nil {
			t.Errorf("%s: %v", stage, err)
			continue
		}
		if !strings.HasPrefix(src, glslVersion) {
			t.Errorf("%s: source must start with the version line", stage)
		}
		if !strings.Contains(src, "void fragCoords()") {
			t.Errorf("%s: missing the coordinate prelude", stage)
		}
		if !strings.Contains(src, "void main()") {
			t.Errorf("%s: missing main", stage)
		}
	}
}

func TestFragmentSource_Keywords(t *testing.T) {
	src, err := fragmentSource(fluid.StageAdvection, []string{fluid.KeywordManualFiltering})
	if err != nil {
		t.Fatal(err)
	}
	define := "#define " + fluid.KeywordManualFiltering + "\n"
	idx := strings.Index(src, define)
	if idx < 0 {
		t.Fatal("keyword define missing")
	}
	if idx > strings.Index(src, "uniform") {
		t.Error("defines must precede the shader body")
	}
}

func TestProgramKey_OrderIndependent(t *testing.T) {
	a := programKey(fluid.StageDisplay, []string{"B", "A"})
	b := programKey(fluid.StageDisplay, []string{"A", "B"})
	if a != b {
		t.Errorf("%q != %q", a, b)
	}
	if a == programKey(fluid.StageDisplay, nil) {
		t.Error("keywords must change the key")
	}
	if a == programKey(fluid.StageBlur, []string{"A", "B"}) {
		t.Error("stage must change the key")
	}
}

func TestPixelFormat(t *testing.T) {
	tests := []struct {
		f  fluid.Format
		ok bool
	}{
		{fluid.Format{Channels: 1, Precision: fluid.PrecisionFloat}, true},
		{fluid.Format{Channels: 2, Precision: fluid.PrecisionFloat}, false},
		{fluid.Format{Channels: 4, Precision: fluid.PrecisionFloat}, true},
		{fluid.Format{Channels: 4, Precision: fluid.PrecisionHalf}, false},
		{fluid.Format{Channels: 1, Precision: fluid.PrecisionHalf}, false},
	}
	for _, tt := range tests {
		if _, ok := pixelFormat(tt.f); ok != tt.ok {
			t.Errorf("pixelFormat(%s) ok = %v, want %v", tt.f, ok, tt.ok)
		}
	}
}
