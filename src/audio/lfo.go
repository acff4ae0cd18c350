package audio

import (
	"encoding/json"
	"log"
	"math"

	"github.com/jinjor/padsynth/src/param"
)

// ----- LFO Shape ----- //

// Shape ...
type Shape int

// Shapes
const (
	ShapeSine Shape = iota
	ShapeTriangle
	ShapeSawtooth
	ShapeSquare
	ShapeNoise
)

var shapeNames = []string{"Sine", "Triangle", "Sawtooth", "Square", "Noise"}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "Unknown"
	}
	return shapeNames[s]
}

// sample returns the raw waveform at phase x in [0,1). Noise is handled by the runner.
func (s Shape) sample(x float64) float64 {
	switch s {
	case ShapeTriangle:
		return 1.0 - 4*math.Abs(math.Floor(x+0.25)-(x-0.25))
	case ShapeSawtooth:
		return 2.0 * (x - math.Floor(x+0.5))
	case ShapeSquare:
		if x-math.Floor(x+0.5) < 0 {
			return -1
		}
		return 1
	default:
		return math.Sin(x * 2 * math.Pi)
	}
}

// ----- LFO Setting ----- //

// LFOSetting ...
type LFOSetting struct {
	Shape     Shape   `json:"shape"`
	Period    float64 `json:"period"` // seconds
	Phase     float64 `json:"phase"`
	Retrigger bool    `json:"retrigger"`
	Version   uint32  `json:"-"`
}

// NewLFOSetting ...
func NewLFOSetting() LFOSetting {
	return LFOSetting{Shape: ShapeSine, Retrigger: true}
}

// ----- LFO Format ----- //

// LFOFormat is the editable form of an LFOSetting.
type LFOFormat struct {
	Shape     *param.Parameter
	Period    *param.Parameter
	Phase     *param.Parameter
	Retrigger *param.Parameter

	setting  LFOSetting
	onChange func(s LFOSetting)
	quiet    bool
}

// NewLFOFormat ...
func NewLFOFormat(onChange func(s LFOSetting)) *LFOFormat {
	f := &LFOFormat{setting: NewLFOSetting(), onChange: onChange}
	update := func(p *param.Parameter) {
		f.apply()
	}
	f.Shape = param.Begin("Shape").Unit("").Mapping(param.LinearInt{Min: 0, Max: 4}).
		Print(param.Names(shapeNames...)).Value(float64(ShapeSine)).Callback(update).Create()
	f.Period = param.Begin("Rate").Unit("Hz").Mapping(param.Exp{Min: 10000, Max: 10}).
		Print(param.NewPrintMapping(func(m param.Mapping, unipolar float64) string {
			return formatFloat(1000.0/m.Y(unipolar), 1)
		})).Value(500).Callback(update).Create()
	f.Phase = param.Begin("Phase").Value(0).Callback(update).Create()
	f.Retrigger = param.Begin("Retrigger").Unit("").Mapping(param.Bool{}).
		Print(param.OnOff).Value(1).Callback(update).Create()
	f.apply()
	return f
}

// Parameters ...
func (f *LFOFormat) Parameters() []NamedParameter {
	return []NamedParameter{
		{"shape", f.Shape},
		{"rate", f.Period},
		{"phase", f.Phase},
		{"retrigger", f.Retrigger},
	}
}

// Setting ...
func (f *LFOFormat) Setting() LFOSetting {
	return f.setting
}

func (f *LFOFormat) apply() {
	if f.quiet || f.Retrigger == nil {
		return
	}
	f.setting.Shape = Shape(f.Shape.Int())
	f.setting.Period = f.Period.Value() / 1000
	f.setting.Phase = f.Phase.Value()
	f.setting.Retrigger = f.Retrigger.Bool()
	f.setting.Version++
	if f.onChange != nil {
		f.onChange(f.setting)
	}
}

func (f *LFOFormat) applyJSON(data json.RawMessage) {
	values := map[string]float64{}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Println("failed to apply JSON to lfo format")
		return
	}
	f.quiet = true
	applyValues(f.Parameters(), values)
	f.quiet = false
	f.apply()
}

func (f *LFOFormat) toJSON() json.RawMessage {
	return toRawMessage(valuesOf(f.Parameters()))
}

// ----- LFO Runner ----- //

const lfoSmoothingSeconds = 0.005

type lfoRunner struct {
	setting     *LFOSetting
	sampleRate  float64
	phase       float64
	random      Random
	coeff       float64
	value       float64
	randomValue float64
	rateMod     [RenderQuantum]float64
}

func (l *lfoRunner) init(setting *LFOSetting, sampleRate float64) {
	l.setting = setting
	l.sampleRate = sampleRate
	l.phase = 0
	l.random.SetSeed(0x303909)
	l.coeff = math.Exp(-1.0 / (lfoSmoothingSeconds * sampleRate))
	l.randomValue = 0
	if setting.Shape == ShapeNoise {
		l.randomValue = l.random.Float()*2 - 1
		l.value = l.randomValue
	} else {
		l.value = 1
	}
}

// setTime positions the phase. Free running LFOs derive it from absolute time so
// that all voices stay in sync.
func (l *lfoRunner) setTime(time float64) {
	s := l.setting
	if s.Retrigger || s.Period <= 0 {
		l.phase = s.Phase
	} else {
		l.phase = time/s.Period + s.Phase
	}
	l.phase -= math.Floor(l.phase)
	l.random.SetSeed(int64(time * 0xFFFFFF))
}

// process fills buf. rateMod scales the phase increment by amount, upwards for
// positive and downwards for negative amounts.
func (l *lfoRunner) process(buf []float64, rateMod []float64, amount float64) {
	s := l.setting
	n := len(buf)
	phaseIncr := 0.0
	if s.Period > 0 {
		phaseIncr = 1.0 / (s.Period * l.sampleRate)
	}
	if amount >= 0 {
		for i := 0; i < n; i++ {
			l.rateMod[i] = rateMod[i]*amount + (1 - amount)
		}
	} else {
		for i := 0; i < n; i++ {
			l.rateMod[i] = (rateMod[i]-1)*amount + (1 + amount)
		}
	}
	if s.Shape == ShapeNoise {
		for i := 0; i < n; i++ {
			l.phase += phaseIncr * l.rateMod[i]
			if l.phase >= 1 {
				l.randomValue = l.random.Float()*2 - 1
				l.phase -= math.Floor(l.phase)
			}
			l.value = l.randomValue + l.coeff*(l.value-l.randomValue)
			buf[i] = l.value
		}
		return
	}
	for i := 0; i < n; i++ {
		sample := s.Shape.sample(l.phase)
		l.value = sample + l.coeff*(l.value-sample)
		l.phase += phaseIncr * l.rateMod[i]
		if l.phase >= 1 {
			l.phase -= math.Floor(l.phase)
		}
		buf[i] = l.value
	}
}
