package audio

import (
	"encoding/json"
	"log"
	"math"

	"github.com/jinjor/padsynth/src/param"
)

// NumHarmonics is the fixed number of harmonics a sound owns.
const NumHarmonics = 32

// ----- Harmonic Sound ----- //

// HarmonicSound derives a harmonic profile from a handful of timbre parameters.
type HarmonicSound struct {
	Name string

	BandWidth      *param.Parameter
	BandWidthScale *param.Parameter
	Metal          *param.Parameter
	Brightness     *param.Parameter
	Distance       *param.Parameter
	NumHarmonics   *param.Parameter
	NotchAmount    *param.Parameter
	NotchFrequency *param.Parameter
	NotchWidth     *param.Parameter

	harmonics []Harmonic
	version   uint32
	onChange  func(s *HarmonicSound)
	quiet     bool
}

// NewHarmonicSound ...
func NewHarmonicSound(name string, onChange func(s *HarmonicSound)) *HarmonicSound {
	s := &HarmonicSound{
		Name:      name,
		harmonics: make([]Harmonic, NumHarmonics),
		onChange:  onChange,
		quiet:     true,
	}
	for i := range s.harmonics {
		s.harmonics[i] = Harmonic{Position: 1}
	}
	update := func(p *param.Parameter) {
		if s.quiet {
			return
		}
		s.generateHarmonics()
		s.notify()
	}
	s.BandWidth = param.Begin("Dispersion").Unit("").Mapping(param.Exp{Min: 5, Max: 120}).
		Print(param.OneFloat).Value(60).Callback(update).Create()
	s.BandWidthScale = param.Begin("Vaporisation").Unit("").Mapping(param.Linear{Min: 1, Max: 2}).
		Print(param.TwoFloats).Value(1.2).Callback(update).Create()
	s.Metal = param.Begin("Metal").Value(0).Callback(update).Create()
	s.Brightness = param.Begin("Brightness").Mapping(param.Linear{Min: -3, Max: 3}).
		Print(param.BipolarPercent).Anchor(0.5).Value(0).Callback(update).Create()
	s.Distance = param.Begin("Separation").Unit("#").Mapping(param.LinearInt{Min: 1, Max: 4}).
		Print(param.NoFloat).Value(1).Callback(update).Create()
	s.NumHarmonics = param.Begin("# Harmonics").Unit("#").Mapping(param.LinearInt{Min: 1, Max: NumHarmonics}).
		Print(param.NoFloat).Value(NumHarmonics).Callback(update).Create()
	s.NotchAmount = param.Begin("Comb Amount").Value(0).Callback(update).Create()
	s.NotchFrequency = param.Begin("Comb Freq").Mapping(param.Linear{Min: 1.0 / 32.0, Max: 0.25}).
		Value(1.0 / 16.0).Callback(update).Create()
	s.NotchWidth = param.Begin("Comb Width").Unit("#").Mapping(param.LinearInt{Min: 1, Max: 32}).
		Print(param.NoFloat).Value(4).Callback(update).Create()
	s.quiet = false
	s.generateHarmonics()
	return s
}

// Parameters ...
func (s *HarmonicSound) Parameters() []NamedParameter {
	return []NamedParameter{
		{"dispersion", s.BandWidth},
		{"vaporisation", s.BandWidthScale},
		{"metal", s.Metal},
		{"brightness", s.Brightness},
		{"separation", s.Distance},
		{"harmonics", s.NumHarmonics},
		{"combAmount", s.NotchAmount},
		{"combFreq", s.NotchFrequency},
		{"combWidth", s.NotchWidth},
	}
}

// Harmonics returns a copy of the current profile.
func (s *HarmonicSound) Harmonics() []Harmonic {
	return append([]Harmonic(nil), s.harmonics...)
}

// Version is incremented every time the profile is regenerated.
func (s *HarmonicSound) Version() uint32 {
	return s.version
}

func (s *HarmonicSound) generateHarmonics() {
	bandWidth := s.BandWidth.Value()
	bandWidthScale := s.BandWidthScale.Value()
	brightness := -math.Pow(2.0, -s.Brightness.Value())
	metal := s.Metal.Value()
	distance := float64(s.Distance.Int())
	numHarmonics := s.NumHarmonics.Int()
	notchAmount := s.NotchAmount.Value()
	notchFrequency := s.NotchFrequency.Value()
	notchWidth := float64(s.NotchWidth.Int())
	i := 0
	for ; i < numHarmonics && i < NumHarmonics; i++ {
		fi := float64(i)
		position := fi*distance + 1
		level := math.Pow(position, brightness)
		bw := (math.Pow(2.0, bandWidth/1200.0) - 1.0) * math.Pow(position, bandWidthScale)
		metalOffset := (math.Sin(fi) * metal * fi) * (8.0 / float64(numHarmonics))
		notchLevel := notchAmount*math.Pow(math.Cos(fi*notchFrequency*math.Pi), notchWidth*2) + (1.0 - notchAmount)
		s.harmonics[i] = Harmonic{
			Position:  position + metalOffset,
			Level:     level * notchLevel,
			BandWidth: bw,
			Active:    true,
		}
	}
	for ; i < NumHarmonics; i++ {
		h := &s.harmonics[i]
		h.Level = 0
		h.BandWidth = 0.1
		h.Active = false
	}
	s.version++
}

func (s *HarmonicSound) notify() {
	if s.onChange != nil {
		s.onChange(s)
	}
}

// Batch applies several edits and regenerates once.
func (s *HarmonicSound) Batch(edit func()) {
	s.quiet = true
	edit()
	s.quiet = false
	s.generateHarmonics()
	s.notify()
}

// Reset ...
func (s *HarmonicSound) Reset() {
	s.Batch(func() {
		for _, p := range s.Parameters() {
			p.Param.Reset()
		}
	})
}

// Randomize ...
func (s *HarmonicSound) Randomize(r *Random) {
	s.Batch(func() {
		s.BandWidth.SetUnipolar(r.Float() * r.Float())
		s.BandWidthScale.SetUnipolar(r.Float() * r.Float())
		if r.Float() > 0.5 {
			s.Metal.SetUnipolar(r.Float())
		} else {
			s.Metal.SetUnipolar(0)
		}
		s.Brightness.SetUnipolar(0.75 + (r.Float()-r.Float())*0.25)
		s.Distance.SetUnipolar(r.Float())
		if r.Float() > 0.75 {
			s.NumHarmonics.SetUnipolar(r.Float())
		} else {
			s.NumHarmonics.SetUnipolar(1)
		}
		s.NotchAmount.SetUnipolar(r.Float())
		s.NotchFrequency.SetUnipolar(r.Float())
		s.NotchWidth.SetUnipolar(r.Float())
	})
}

// CopyTo ...
func (s *HarmonicSound) CopyTo(target *HarmonicSound) {
	source := s.Parameters()
	target.Batch(func() {
		for i, p := range target.Parameters() {
			p.Param.Set(source[i].Param.Value())
		}
	})
}

func (s *HarmonicSound) applyJSON(data json.RawMessage) {
	values := map[string]float64{}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Println("failed to apply JSON to sound " + s.Name)
		return
	}
	s.Batch(func() {
		applyValues(s.Parameters(), values)
	})
}

func (s *HarmonicSound) toJSON() json.RawMessage {
	return toRawMessage(valuesOf(s.Parameters()))
}
