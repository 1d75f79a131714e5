package fluid

import (
	"errors"
	"testing"
)

type stubTexture struct {
	w, h int
	f    Format
}

func (t *stubTexture) Width() int     { return t.w }
func (t *stubTexture) Height() int    { return t.h }
func (t *stubTexture) Format() Format { return t.f }

// stubBackend allocates placeholder textures and fails after failAfter allocations.
type stubBackend struct {
	capsFunc
	live      map[*stubTexture]bool
	allocs    int
	failAfter int
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		capsFunc:  capsFunc{target: func(Format) bool { return true }},
		live:      make(map[*stubTexture]bool),
		failAfter: -1,
	}
}

func (b *stubBackend) NewTexture(w, h int, f Format, _ Filter) (Texture, error) {
	if b.failAfter >= 0 && b.allocs >= b.failAfter {
		return nil, errors.New("out of memory")
	}
	b.allocs++
	t := &stubTexture{w, h, f}
	b.live[t] = true
	return t, nil
}

func (b *stubBackend) ReleaseTexture(t Texture) { delete(b.live, t.(*stubTexture)) }

func (b *stubBackend) Program(Stage, ...string) (Program, error) { return nil, nil }
func (b *stubBackend) Draw(Program, Uniforms, Texture) error     { return nil }
func (b *stubBackend) Present(Program, Uniforms, Blend) error    { return nil }
func (b *stubBackend) Close() error                              { return nil }

func TestResolution_AspectPreserving(t *testing.T) {
	tests := []struct {
		base, w, h   int
		wantW, wantH int
	}{
		{128, 1280, 720, 228, 128},
		{128, 720, 1280, 128, 228},
		{128, 500, 500, 128, 128},
		{1024, 1920, 1080, 1820, 1024},
		{64, 0, 100, 64, 64},
	}
	for _, tt := range tests {
		w, h := Resolution(tt.base, tt.w, tt.h)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("Resolution(%d, %d, %d) = %dx%d, want %dx%d",
				tt.base, tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestResolution_Deterministic(t *testing.T) {
	w1, h1 := Resolution(256, 1366, 768)
	w2, h2 := Resolution(256, 1366, 768)
	if w1 != w2 || h1 != h2 {
		t.Error("same inputs gave different resolutions")
	}
}

func TestDoubleField_Alternates(t *testing.T) {
	b := newStubBackend()
	d, err := newDoubleField(b, 8, 4, rg16, FilterLinear)
	if err != nil {
		t.Fatal(err)
	}
	first, second := d.Read(), d.Write()
	if first == second {
		t.Fatal("read and write halves must be distinct")
	}
	for i := 0; i < 5; i++ {
		d.Swap()
		if d.Read() == d.Write() {
			t.Fatalf("swap %d: read and write are the same field", i)
		}
		wantRead := second
		if i%2 == 1 {
			wantRead = first
		}
		if d.Read() != wantRead {
			t.Fatalf("swap %d: read half did not alternate", i)
		}
	}
	if d.Swaps() != 5 {
		t.Errorf("expected 5 swaps, got %d", d.Swaps())
	}
	if ts := d.TexelSize(); ts[0] != 1.0/8 || ts[1] != 1.0/4 {
		t.Errorf("unexpected texel size %v", ts)
	}
}

func TestAllocateFields_Sizes(t *testing.T) {
	b := newStubBackend()
	fs := FormatSet{R: r16, RG: rg16, RGBA: rgba16, LinearFiltering: true}
	f, err := allocateFields(b, fs, 128, 1024, 1280, 720)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.live) != 9 {
		t.Errorf("expected 9 textures, got %d", len(b.live))
	}
	if f.Velocity.Width() != 228 || f.Velocity.Height() != 128 {
		t.Errorf("velocity is %dx%d", f.Velocity.Width(), f.Velocity.Height())
	}
	if f.Dye.Width() != 1820 || f.Blur.Width() != 1820 {
		t.Errorf("dye is %d wide, blur %d", f.Dye.Width(), f.Blur.Width())
	}
	if f.Pressure.Read().Texture().Format() != r16 {
		t.Errorf("pressure format %s", f.Pressure.Read().Texture().Format())
	}

	f.release(b)
	if len(b.live) != 0 {
		t.Errorf("expected all textures released, %d remain", len(b.live))
	}
}

func TestAllocateFields_ReleasesOnFailure(t *testing.T) {
	fs := FormatSet{R: r16, RG: rg16, RGBA: rgba16}
	for n := 0; n < 9; n++ {
		b := newStubBackend()
		b.failAfter = n
		if _, err := allocateFields(b, fs, 32, 64, 100, 100); err == nil {
			t.Fatalf("failAfter=%d: expected error", n)
		}
		if len(b.live) != 0 {
			t.Errorf("failAfter=%d: %d textures leaked", n, len(b.live))
		}
	}
}
