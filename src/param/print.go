package param

import (
	"math"
	"strconv"
	"strings"
)

// PrintMapping formats a parameter for humans and parses text back into a value.
type PrintMapping struct {
	Output func(m Mapping, unipolar float64) string
	Input  func(m Mapping, text string) (float64, bool)
}

// NewPrintMapping creates a PrintMapping with the default text input.
func NewPrintMapping(output func(m Mapping, unipolar float64) string) PrintMapping {
	return PrintMapping{Output: output, Input: defaultInput}
}

func defaultInput(m Mapping, text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "%") {
		value, err := parseLeadingFloat(strings.TrimSuffix(text, "%"))
		if err != nil {
			return 0, false
		}
		return m.Y(value / 100), true
	}
	value, err := parseLeadingFloat(text)
	if err != nil {
		return 0, false
	}
	return m.Y(Clamp(0, 1, m.X(value))), true
}

func bipolarInput(m Mapping, text string) (float64, bool) {
	value, err := parseLeadingFloat(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return m.Y(Clamp(0, 1, value/200+0.5)), true
}

// accepts "12.5 ms" and the like
func parseLeadingFloat(text string) (float64, error) {
	end := len(text)
	for i, r := range text {
		if !(r >= '0' && r <= '9' || r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E') {
			end = i
			break
		}
	}
	value, err := strconv.ParseFloat(text[:end], 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) {
		return 0, strconv.ErrSyntax
	}
	return value, nil
}

func fixed(digits int) PrintMapping {
	return NewPrintMapping(func(m Mapping, unipolar float64) string {
		return strconv.FormatFloat(m.Y(unipolar), 'f', digits, 64)
	})
}

var (
	// NoFloat ...
	NoFloat = fixed(0)
	// OneFloat ...
	OneFloat = fixed(1)
	// TwoFloats ...
	TwoFloats = fixed(2)
	// ThreeFloats ...
	ThreeFloats = fixed(3)
	// Percent prints the unipolar value in percent.
	Percent = NewPrintMapping(func(m Mapping, unipolar float64) string {
		return strconv.FormatFloat(unipolar*100, 'f', 1, 64)
	})
	// BipolarPercent prints -100..100 around the center.
	BipolarPercent = PrintMapping{
		Output: func(m Mapping, unipolar float64) string {
			return strconv.FormatFloat((unipolar-0.5)*200, 'f', 1, 64)
		},
		Input: bipolarInput,
	}
	// Cents prints octaves as cents.
	Cents = PrintMapping{
		Output: func(m Mapping, unipolar float64) string {
			return strconv.FormatFloat(m.Y(unipolar)*1200, 'f', 1, 64)
		},
		Input: bipolarInput,
	}
	// OnOff ...
	OnOff = NewPrintMapping(func(m Mapping, unipolar float64) string {
		if m.Y(unipolar) >= 0.5 {
			return "on"
		}
		return "off"
	})
)

// Names prints the name at the mapped integer index.
func Names(names ...string) PrintMapping {
	return PrintMapping{
		Output: func(m Mapping, unipolar float64) string {
			i := int(m.Y(unipolar))
			if i < 0 || i >= len(names) {
				return "?"
			}
			return names[i]
		},
		Input: func(m Mapping, text string) (float64, bool) {
			for i, name := range names {
				if strings.EqualFold(name, strings.TrimSpace(text)) {
					return float64(i), true
				}
			}
			return defaultInput(m, text)
		},
	}
}

// Clamp ...
func Clamp(min, max, value float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
