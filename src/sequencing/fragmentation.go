package sequencing

import (
	"math"

	"github.com/jinjor/padsynth/src/param"
)

// ----- Groove ----- //

// Groove warps positions inside a repeating duration (in bars). Forward maps a
// straight position in [0,1) to a grooved one and Inverse undoes it.
type Groove interface {
	Forward(x float64) float64
	Inverse(y float64) float64
	Duration() float64
}

// Renormalise maps a grooved position back to a straight one.
func Renormalise(g Groove, position float64) float64 {
	duration := g.Duration()
	start := math.Floor(position/duration) * duration
	normalized := (position - start) / duration
	return start + g.Inverse(normalized)*duration
}

// Transform maps a straight position to a grooved one.
func Transform(g Groove, position float64) float64 {
	duration := g.Duration()
	start := math.Floor(position/duration) * duration
	normalized := (position - start) / duration
	return start + g.Forward(normalized)*duration
}

// GrooveNone keeps every position.
type GrooveNone struct{}

// Forward ...
func (GrooveNone) Forward(x float64) float64 { return x }

// Inverse ...
func (GrooveNone) Inverse(y float64) float64 { return y }

// Duration ...
func (GrooveNone) Duration() float64 { return 1 }

// GrooveShuffle delays every second eighth.
type GrooveShuffle struct {
	Impact *param.Parameter
}

// NewGrooveShuffle ...
func NewGrooveShuffle(impact float64) *GrooveShuffle {
	return &GrooveShuffle{
		Impact: param.Begin("Shuffle").Mapping(param.Linear{Min: 0.05, Max: 0.95}).
			Print(param.Percent).Value(impact).Create(),
	}
}

// Forward ...
func (g *GrooveShuffle) Forward(x float64) float64 {
	return math.Pow(x, (1.0-g.Impact.Value())*2.0)
}

// Inverse ...
func (g *GrooveShuffle) Inverse(y float64) float64 {
	return math.Pow(y, 0.5/(1.0-g.Impact.Value()))
}

// Duration ...
func (g *GrooveShuffle) Duration() float64 {
	return 1.0 / 8.0
}

// ----- Fragmentation ----- //

// StepFunc receives one grid step: its index, its grooved position and the
// grooved position of the next step.
type StepFunc func(computeStartMillis StartMillis, index int, position, complete float64)

// Fragmentation cuts scheduling windows into a grid of Scale bars.
type Fragmentation struct {
	Scale  float64
	Groove Groove
	step   StepFunc
}

// NewFragmentation ...
func NewFragmentation(scale float64, step StepFunc) *Fragmentation {
	return &Fragmentation{Scale: scale, Groove: GrooveNone{}, step: step}
}

// Equalise calls the step function for every grid position in [t0, t1). It can
// be registered as a Processor.
func (f *Fragmentation) Equalise(computeStartMillis StartMillis, t0, t1 float64) {
	t0 = Renormalise(f.Groove, t0)
	t1 = Renormalise(f.Groove, t1)
	index := int(t0 / f.Scale)
	if index < 0 {
		return
	}
	position := float64(index) * f.Scale
	for position < t1 {
		if position >= t0 {
			f.step(computeStartMillis, index, Transform(f.Groove, position), Transform(f.Groove, position+f.Scale))
		}
		index++
		position = float64(index) * f.Scale
	}
}
