package audio

import (
	"math"
	"testing"
)

func TestHarmonicSoundDefaults(t *testing.T) {
	s := NewHarmonicSound("A", nil)
	h := s.Harmonics()
	expectEqual(t, len(h), NumHarmonics)
	for i, harmonic := range h {
		expectEqual(t, harmonic.Active, true)
		expectNearlyEqual(t, harmonic.Position, float64(i+1))
		expectNearlyEqual(t, harmonic.Level, 1/float64(i+1))
	}
	expectNearlyEqual(t, h[0].BandWidth, math.Pow(2, 60.0/1200)-1)
	expectNearlyEqual(t, h[3].BandWidth, (math.Pow(2, 60.0/1200)-1)*math.Pow(4, 1.2))

	// the copy is not shared
	h[0].Level = 100
	expectNearlyEqual(t, s.Harmonics()[0].Level, 1)
}

func TestHarmonicSoundParameters(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(s *HarmonicSound)
		check func(t *testing.T, h []Harmonic)
	}{
		{
			name: "separation",
			edit: func(s *HarmonicSound) { s.Distance.Set(2) },
			check: func(t *testing.T, h []Harmonic) {
				expectNearlyEqual(t, h[0].Position, 1)
				expectNearlyEqual(t, h[1].Position, 3)
				expectNearlyEqual(t, h[2].Position, 5)
			},
		},
		{
			name: "harmonics",
			edit: func(s *HarmonicSound) { s.NumHarmonics.Set(4) },
			check: func(t *testing.T, h []Harmonic) {
				expectEqual(t, h[3].Active, true)
				expectEqual(t, h[4].Active, false)
				expectEqual(t, h[4].Level, 0.0)
				expectEqual(t, h[31].Active, false)
			},
		},
		{
			name: "brightness",
			edit: func(s *HarmonicSound) { s.Brightness.Set(1) },
			check: func(t *testing.T, h []Harmonic) {
				expectNearlyEqual(t, h[1].Level, math.Pow(2, -0.5))
			},
		},
		{
			name: "comb",
			edit: func(s *HarmonicSound) {
				s.NotchAmount.Set(1)
				s.NotchFrequency.Set(0.25)
				s.NotchWidth.Set(1)
			},
			check: func(t *testing.T, h []Harmonic) {
				expectNearlyEqual(t, h[0].Level, 1)
				// cos(pi/2) = 0
				expectNearlyEqual(t, h[2].Level, 0)
			},
		},
		{
			name: "metal",
			edit: func(s *HarmonicSound) { s.Metal.Set(1) },
			check: func(t *testing.T, h []Harmonic) {
				expectNearlyEqual(t, h[0].Position, 1)
				expectNearlyEqual(t, h[1].Position, 2+math.Sin(1)*8/NumHarmonics)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHarmonicSound("A", nil)
			tt.edit(s)
			tt.check(t, s.Harmonics())
		})
	}
}

func TestHarmonicSoundNotifiesOncePerBatch(t *testing.T) {
	count := 0
	s := NewHarmonicSound("A", func(*HarmonicSound) {
		count++
	})
	expectEqual(t, count, 0)
	version := s.Version()
	s.Metal.Set(0.3)
	expectEqual(t, count, 1)
	s.Batch(func() {
		s.Metal.Set(0.4)
		s.Brightness.Set(1)
		s.NotchAmount.Set(1)
	})
	expectEqual(t, count, 2)
	expectEqual(t, s.Version(), version+2)

	s.Reset()
	expectEqual(t, count, 3)
	expectNearlyEqual(t, s.Metal.Value(), 0)
	expectNearlyEqual(t, s.Brightness.Value(), 0)
}

func TestHarmonicSoundRandomizeAndCopy(t *testing.T) {
	r := NewRandom(42)
	a := NewHarmonicSound("A", nil)
	a.Randomize(r)
	for _, h := range a.Harmonics() {
		if math.IsNaN(h.Level) || math.IsNaN(h.Position) || h.Level < 0 {
			t.Fatalf("invalid harmonic: %+v", h)
		}
	}
	b := NewHarmonicSound("B", nil)
	a.CopyTo(b)
	ha := a.Harmonics()
	hb := b.Harmonics()
	for i := range ha {
		expectEqual(t, hb[i], ha[i])
	}
	expectEqual(t, b.Name, "B")
}
