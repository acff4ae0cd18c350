package audio

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	falloffHz = 18000.0
	// beyond this the profile is too small to matter
	minExp = 14.71280603
)

var bound = math.Sqrt(minExp)

// Harmonic is one bell shaped partial of a spectral profile.
// Position is a multiple of the fundamental, BandWidth is relative to it.
type Harmonic struct {
	Position  float64 `json:"position"`
	Level     float64 `json:"level"`
	BandWidth float64 `json:"bandWidth"`
	Active    bool    `json:"active"`
}

// ----- Pad ----- //

// Pad builds band-limited tables from harmonic profiles. The random phases and
// the falloff window are fixed at construction and shared by every table so that
// regenerated tables stay phase coherent.
//
// GenerateTable uses the scratch buffers of the Pad and must not be called
// concurrently. Generate works on private copies.
type Pad struct {
	layout  *TableLayout
	fft     *FFT
	sin     []float64
	cos     []float64
	falloff []float64

	profiles []float64
	re       []float64
	im       []float64
}

// NewPad ...
func NewPad(layout *TableLayout) (*Pad, error) {
	fft, err := NewFFT(layout.Size)
	if err != nil {
		return nil, err
	}
	bins := layout.Size >> 1
	p := &Pad{
		layout:  layout,
		fft:     fft,
		sin:     make([]float64, bins),
		cos:     make([]float64, bins),
		falloff: make([]float64, bins),
	}
	p.allocScratch()
	random := NewRandom(0x91826)
	cutIndex := int(math.Floor(falloffHz / layout.Bin))
	a := math.Pi / (float64(cutIndex) * 2.0)
	for i := 0; i < bins; i++ {
		if i > cutIndex {
			x := math.Cos(float64(i-cutIndex) * a)
			p.falloff[i] = x * x
		} else {
			p.falloff[i] = 1.0
		}
		phase := random.Float() * 2.0 * math.Pi
		p.sin[i] = math.Sin(phase)
		p.cos[i] = math.Cos(phase)
	}
	return p, nil
}

func (p *Pad) allocScratch() {
	p.profiles = make([]float64, p.layout.Size>>1)
	p.re = make([]float64, p.layout.Size)
	p.im = make([]float64, p.layout.Size)
}

// clone shares the read-only arrays and owns new scratch buffers.
func (p *Pad) clone() (*Pad, error) {
	fft, err := NewFFT(p.layout.Size)
	if err != nil {
		return nil, err
	}
	c := &Pad{
		layout:  p.layout,
		fft:     fft,
		sin:     p.sin,
		cos:     p.cos,
		falloff: p.falloff,
	}
	c.allocScratch()
	return c, nil
}

// Layout ...
func (p *Pad) Layout() *TableLayout {
	return p.layout
}

func profile(fi, bwi float64) float64 {
	x := fi / bwi
	x *= x
	if x > minExp {
		return 0.0
	}
	return math.Exp(-x) / bwi
}

// GenerateTable renders one table for a fundamental frequency. The peak of the
// result is 1/√2. A profile without energy gives a silent table.
func (p *Pad) GenerateTable(harmonics []Harmonic, frequency float64) []float32 {
	size := p.layout.Size
	bins := size >> 1
	sizeInverse := 1.0 / float64(size)
	normalised := frequency / p.layout.SampleRate
	profiles := p.profiles
	for i := range profiles {
		profiles[i] = 0
	}
	for _, h := range harmonics {
		if !h.Active || h.BandWidth <= 0 {
			continue
		}
		fh := h.Position * normalised
		bwi := h.BandWidth * normalised * 0.5
		temp := bwi * bound
		jMin := int(math.Max(1, math.Ceil((fh-temp)*float64(size))))
		if jMin >= bins {
			continue
		}
		jMid := int(math.Min(float64(bins), math.Floor(fh*float64(size))))
		jMax := int(math.Min(float64(bins), math.Ceil((fh+temp)*float64(size))))
		j := jMin
		for ; j < jMid; j++ {
			profiles[j] += profile(float64(j)*sizeInverse-fh, bwi) * h.Level
		}
		if jMid < jMax {
			// peak
			profiles[jMid] += profile(0, bwi) * h.Level
			for j = jMid + 1; j < jMax; j++ {
				profiles[j] += profile(float64(j)*sizeInverse-fh, bwi) * h.Level
			}
		}
	}
	re, im := p.re, p.im
	for i := 0; i < size; i++ {
		re[i] = 0
		im[i] = 0
	}
	for i := 0; i < bins; i++ {
		amplitude := profiles[i] * p.falloff[i]
		re[i] = amplitude * p.sin[i]
		im[i] = amplitude * p.cos[i]
	}
	p.fft.Transform(im, re)
	peak := 0.0
	for i := 0; i < size; i++ {
		if a := math.Abs(re[i]); a > peak {
			peak = a
		}
	}
	table := make([]float32, size)
	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return table
	}
	scale := 1.0 / (peak * math.Sqrt2)
	for i := 0; i < size; i++ {
		table[i] = float32(re[i] * scale)
	}
	return table
}

// Generate renders a complete table set, bands in parallel.
func (p *Pad) Generate(ctx context.Context, harmonics []Harmonic) (*TableSet, error) {
	count := p.layout.Count()
	set := &TableSet{Tables: make([][]float32, count)}
	workers := runtime.NumCPU()
	if workers > count {
		workers = count
	}
	indices := make(chan int, count)
	for i := 0; i < count; i++ {
		indices <- i
	}
	close(indices)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			scratch, err := p.clone()
			if err != nil {
				return err
			}
			for i := range indices {
				if err := ctx.Err(); err != nil {
					return err
				}
				set.Tables[i] = scratch.GenerateTable(harmonics, p.layout.Frequencies[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}
