package noise

import (
	"math"
	"testing"
)

var allKinds = []Kind{KindPerlin, KindOpenSimplex, KindValue, KindCellular}

func TestSampleDeterministic(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{17.123, 43.512},
		{-250.5, 1033.75},
		{123456.7, -98765.4},
	}
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			for _, p := range points {
				a := Sample(kind, 813, 0.005, p[0], p[1])
				b := Sample(kind, 813, 0.005, p[0], p[1])
				if math.Float64bits(a) != math.Float64bits(b) {
					t.Errorf("expected identical results at %v, got %v and %v", p, a, b)
				}
			}
		})
	}
}

func TestSamplerMatchesSample(t *testing.T) {
	for _, kind := range allKinds {
		s := New(kind, 42)
		s.SetFrequency(0.01)
		got := s.Eval(310.5, -77.25)
		want := Sample(kind, 42, 0.01, 310.5, -77.25)
		if got != want {
			t.Errorf("%s: expected %v, got %v", kind, want, got)
		}
	}
}

func TestEvalRange(t *testing.T) {
	for _, kind := range allKinds {
		s := New(kind, 7)
		s.SetFrequency(0.037)
		for i := 0; i < 2000; i++ {
			x := float64(i)*13.7 - 5000
			y := float64(i)*-7.3 + 1200
			v := s.Eval(x, y)
			if v < -1 || v > 1 {
				t.Fatalf("%s: value %v at (%v, %v) outside [-1, 1]", kind, v, x, y)
			}
		}
	}
}

func TestSeedsDiffer(t *testing.T) {
	for _, kind := range allKinds {
		a := New(kind, 1)
		b := New(kind, 2)
		a.SetFrequency(0.01)
		b.SetFrequency(0.01)

		differ := false
		for i := 0; i < 50 && !differ; i++ {
			x := float64(i)*37.3 + 0.5
			y := float64(i)*11.9 + 0.25
			if a.Eval(x, y) != b.Eval(x, y) {
				differ = true
			}
		}
		if !differ {
			t.Errorf("%s: expected different seeds to produce different fields", kind)
		}
	}
}

func TestFrequencyIsMutable(t *testing.T) {
	s := New(KindValue, 3)
	s.SetFrequency(0.5)
	if s.Frequency() != 0.5 {
		t.Errorf("expected frequency 0.5, got %v", s.Frequency())
	}
	low := s.Eval(10.3, 20.7)
	s.SetFrequency(2)
	s.Eval(10.3, 20.7)
	s.SetFrequency(0.5)
	again := s.Eval(10.3, 20.7)
	if low != again {
		t.Errorf("expected %v after restoring frequency, got %v", low, again)
	}
}

func TestCellularIsPiecewiseConstant(t *testing.T) {
	s := New(KindCellular, 99)
	s.SetFrequency(0.01)

	distinct := make(map[float64]bool)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			distinct[s.Eval(float64(x), float64(y))] = true
		}
	}
	// A 100x100 patch at frequency 0.01 spans about one cell, so at most
	// the 3x3 neighbourhood of cells can show up.
	if len(distinct) > 9 {
		t.Errorf("expected at most 9 cell values, got %d", len(distinct))
	}
}

func TestCellularMatchesNearestCell(t *testing.T) {
	for i := 0; i < 200; i++ {
		x := float64(i)*0.731 - 40
		y := float64(i)*-0.219 + 15
		cx, cy := nearestCell(x, y, 5)
		fx, fy := featurePoint(cx, cy, 5)
		// The feature point of the winning cell belongs to that cell.
		gx, gy := nearestCell(fx, fy, 5)
		if gx != cx || gy != cy {
			t.Fatalf("feature point of (%d, %d) resolved to (%d, %d)", cx, cy, gx, gy)
		}
		if cellValue(x, y, 5) != cellValue(fx, fy, 5) {
			t.Fatalf("expected point (%v, %v) to share its cell's value", x, y)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindPerlin, false},
		{"Perlin", KindPerlin, false},
		{"opensimplex", KindOpenSimplex, false},
		{"value", KindValue, false},
		{"cellular", KindCellular, false},
		{"worley2", KindPerlin, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q): unexpected error state %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	if Normalize(-1) != 0 || Normalize(1) != 1 || Normalize(0) != 0.5 {
		t.Error("expected Normalize to map [-1, 1] onto [0, 1]")
	}
}
