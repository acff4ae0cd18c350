package audio

import "math"

// ----- Curve ----- //

const (
	branchIncreasing = iota
	branchDecreasing
	branchLinear
)

// curve describes an exponential segment from y1 to y2 over x2 frames.
// Starting at y1, the recurrence value = value*multiplier + delta reaches y2
// after x2 steps. bend 0.5 is the exact linear case.
//
//	y2 +             ,--x
//	   |         _,-'
//	   |     _,-'        bend < 0.5
//	   | _,-'
//	y1 x----------------+
//	   0                x2
type curve struct {
	multiplier float64
	delta      float64

	y1     float64
	x2     float64
	dy     float64
	cstA   float64
	cstD   float64
	cstE   float64
	branch int
}

func (c *curve) byHalfValue(x2, y1, ym, y2 float64) {
	if y2 == y1 {
		c.byBend(x2, y1, 0.5, y1)
	} else {
		c.byBend(x2, y1, (ym-y1)/(y2-y1), y2)
	}
}

func (c *curve) byBend(x2, y1, bend, y2 float64) {
	c.dy = y2 - y1
	c.y1 = y1
	c.x2 = x2
	if x2 <= 0 {
		// a step: nothing to interpolate
		c.multiplier = 1
		c.delta = 0
		c.branch = branchLinear
		return
	}
	if bend > 0.499999 && bend < 0.500001 {
		c.multiplier = 1
		c.delta = c.dy / x2
		c.branch = branchLinear
		return
	}
	onemb := 1 - bend
	onembs := onemb * onemb
	onem2b := 1 - bend - bend
	bends := bend * bend
	s := onemb / bend
	c.multiplier = math.Pow(s, 2.0/x2)
	s2 := s * s
	c.delta = (y2 - y1*s2) * (c.multiplier - 1.0) / (s2 - 1.0)
	c.cstA = (y1*onembs - y2*bends) / onem2b
	b := c.dy * bends / onem2b
	c.cstD = 2.0 * math.Log(s) / x2
	c.cstE = math.Log(math.Abs(b))
	if b < 0 {
		c.branch = branchDecreasing
	} else {
		c.branch = branchIncreasing
	}
}

// y evaluates the curve at frame x.
func (c *curve) y(x float64) float64 {
	switch c.branch {
	case branchIncreasing:
		return c.cstA + math.Exp(c.cstD*x+c.cstE)
	case branchDecreasing:
		return c.cstA - math.Exp(c.cstD*x+c.cstE)
	default:
		if c.x2 <= 0 {
			return c.y1 + c.dy
		}
		return c.y1 + x*c.dy/c.x2
	}
}

// x is the inverse of y.
func (c *curve) x(y float64) float64 {
	switch c.branch {
	case branchIncreasing:
		return (math.Log(y-c.cstA) - c.cstE) / c.cstD
	case branchDecreasing:
		return (math.Log(c.cstA-y) - c.cstE) / c.cstD
	default:
		if c.dy == 0 {
			return 0
		}
		return (y - c.y1) * c.x2 / c.dy
	}
}
