package audio

import (
	"math"
	"time"
)

// RenderQuantum is the number of frames processed per block.
const RenderQuantum = 128

const (
	baseFreq = 440.0
	logDb    = math.Ln10 / 20.0
)

// ----- Utility ----- //

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}

// MidiToFrequency ...
func MidiToFrequency(note float64, baseFrequency float64) float64 {
	return baseFrequency * math.Pow(2.0, (note+3.0)/12.0-6.0)
}

// DbToGain ...
func DbToGain(db float64) float64 {
	return math.Exp(db * logDb)
}

// GainToDb ...
func GainToDb(gain float64) float64 {
	return math.Log(gain) / logDb
}

// BarsToNumFrames ...
func BarsToNumFrames(bars, bpm, sampleRate float64) float64 {
	return bars * sampleRate * 240.0 / bpm
}

// NumFramesToBars ...
func NumFramesToBars(numFrames, bpm, sampleRate float64) float64 {
	return numFrames * bpm / (sampleRate * 240.0)
}

func clamp(min, max, value float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// hermite reads x at a fractional position with 4-point cubic interpolation.
// len(x) must be mask+1 and a power of two.
func hermite(x []float32, phase float64, mask int) float64 {
	idx := int(phase)
	alpha := phase - float64(idx)
	xm1 := float64(x[idx&mask])
	x0 := float64(x[(idx+1)&mask])
	x1 := float64(x[(idx+2)&mask])
	x2 := float64(x[(idx+3)&mask])
	a := (3.0*(x0-x1) - xm1 + x2) * 0.5
	b := 2.0*x1 + xm1 - (5.0*x0+x2)*0.5
	c := (x1 - xm1) * 0.5
	return ((a*alpha+b)*alpha+c)*alpha + x0
}

// ----- Random ----- //

// Random is a Park-Miller minimal standard generator. Every component owns its own.
type Random struct {
	seed int64
}

// NewRandom ...
func NewRandom(seed int64) *Random {
	r := &Random{}
	r.SetSeed(seed)
	return r
}

// SetSeed ...
func (r *Random) SetSeed(seed int64) {
	r.seed = seed % 2147483647
	if r.seed <= 0 {
		r.seed += 2147483646
	}
}

// Next ...
func (r *Random) Next() int64 {
	r.seed = r.seed * 16807 % 2147483647
	return r.seed
}

// Float returns a value in [0,1].
func (r *Random) Float() float64 {
	return float64(r.Next()-1) / 2147483646.0
}

// Intn ...
func (r *Random) Intn(limit int) int {
	return int(r.Next() % int64(limit))
}
