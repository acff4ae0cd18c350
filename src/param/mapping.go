package param

import "math"

// Mapping converts between a unipolar [0,1] value and a domain value.
type Mapping interface {
	Y(x float64) float64
	X(y float64) float64
}

// ----- Linear ----- //

// Linear ...
type Linear struct {
	Min float64
	Max float64
}

var (
	// Identity ...
	Identity = Linear{Min: 0, Max: 1}
	// Bipolar ...
	Bipolar = Linear{Min: -1, Max: 1}
	// Hundred ...
	Hundred = Linear{Min: 0, Max: 100}
)

// Y ...
func (m Linear) Y(x float64) float64 {
	return m.Min + x*(m.Max-m.Min)
}

// X ...
func (m Linear) X(y float64) float64 {
	return (y - m.Min) / (m.Max - m.Min)
}

// ----- Linear Int ----- //

// LinearInt maps onto integers, rounding to the nearest one.
type LinearInt struct {
	Min int
	Max int
}

// Y ...
func (m LinearInt) Y(x float64) float64 {
	return float64(m.Min) + math.Round(x*float64(m.Max-m.Min))
}

// X ...
func (m LinearInt) X(y float64) float64 {
	return (y - float64(m.Min)) / float64(m.Max-m.Min)
}

// ----- Exp ----- //

// Exp ...
type Exp struct {
	Min float64
	Max float64
}

// Y ...
func (m Exp) Y(x float64) float64 {
	return m.Min * math.Exp(x*math.Log(m.Max/m.Min))
}

// X ...
func (m Exp) X(y float64) float64 {
	return math.Log(y/m.Min) / math.Log(m.Max/m.Min)
}

// ----- Bool ----- //

// Bool maps to 1 (true) or 0 (false).
type Bool struct{}

// Y ...
func (Bool) Y(x float64) float64 {
	if x >= 0.5 {
		return 1
	}
	return 0
}

// X ...
func (Bool) X(y float64) float64 {
	if y >= 0.5 {
		return 1
	}
	return 0
}

// ----- Level ----- //

// Level maps to decibels along db = a - b/(x+c), passing through min, mid and max
// at x = 0, 0.5 and 1. x = 0 gives -Inf so that the gain becomes a true zero.
type Level struct {
	min float64
	max float64
	a   float64
	b   float64
	c   float64
}

// DefaultLevel ...
var DefaultLevel = NewLevel(-72, -12, 0)

// NewLevel ...
func NewLevel(min, mid, max float64) Level {
	min2 := min * min
	max2 := max * max
	mid2 := mid * mid
	tmp0 := min + max - 2*mid
	tmp1 := max - mid
	return Level{
		min: min,
		max: max,
		a:   ((2*max-mid)*min - mid*max) / tmp0,
		b: (tmp1*min2 + (mid2-max2)*min + mid*max2 - mid2*max) /
			(min2 + (2*max-4*mid)*min + max2 - 4*mid*max + 4*mid2),
		c: -tmp1 / tmp0,
	}
}

// Y ...
func (m Level) Y(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	if x >= 1 {
		return m.max
	}
	return m.a - m.b/(x+m.c)
}

// X ...
func (m Level) X(y float64) float64 {
	if y <= m.min {
		return 0
	}
	if y >= m.max {
		return 1
	}
	return -m.b/(y-m.a) - m.c
}
