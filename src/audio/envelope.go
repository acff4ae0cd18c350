package audio

import (
	"encoding/json"
	"log"

	"github.com/jinjor/padsynth/src/param"
)

// ----- Envelope Setting ----- //

// EnvelopeSetting is the value snapshot an ADSR runner reads. Version changes on
// every edit and is the only change signal the render side looks at.
type EnvelopeSetting struct {
	AttackFrames   uint32  `json:"attackFrames"`
	AttackBend     float64 `json:"attackBend"`
	DecayFrames    uint32  `json:"decayFrames"`
	DecayBend      float64 `json:"decayBend"`
	DecayLoop      bool    `json:"decayLoop"`
	SustainValue   float64 `json:"sustainValue"`
	ReleaseFrames  uint32  `json:"releaseFrames"`
	ReleaseBend    float64 `json:"releaseBend"`
	ReleaseEnabled bool    `json:"releaseEnabled"`
	Version        uint32  `json:"-"`
}

// NewEnvelopeSetting ...
func NewEnvelopeSetting() EnvelopeSetting {
	return EnvelopeSetting{
		AttackBend:     0.5,
		DecayBend:      0.5,
		ReleaseBend:    0.5,
		ReleaseEnabled: true,
	}
}

func secondsToFrames(seconds float64, sampleRate float64) uint32 {
	frames := seconds * sampleRate
	if frames <= 0 {
		return 0
	}
	return uint32(frames)
}

// ----- Envelope Format ----- //

var (
	envelopeTimeMapping        = param.Exp{Min: 1, Max: 9999}
	envelopeBendMapping        = param.Linear{Min: 0.01, Max: 0.99}
	envelopeBendMappingInverse = param.Linear{Min: 0.99, Max: 0.01}
)

// EnvelopeFormat is the editable, parameter based form of an EnvelopeSetting.
// Every parameter change emits a new snapshot with an incremented version.
type EnvelopeFormat struct {
	AttackTime     *param.Parameter
	AttackBend     *param.Parameter
	DecayTime      *param.Parameter
	DecayBend      *param.Parameter
	DecayLoop      *param.Parameter
	SustainValue   *param.Parameter
	ReleaseTime    *param.Parameter
	ReleaseBend    *param.Parameter
	ReleaseEnabled *param.Parameter

	sampleRate float64
	setting    EnvelopeSetting
	onChange   func(s EnvelopeSetting)
	quiet      bool
}

// NewEnvelopeFormat ...
func NewEnvelopeFormat(sampleRate float64, onChange func(s EnvelopeSetting)) *EnvelopeFormat {
	f := &EnvelopeFormat{
		sampleRate: sampleRate,
		setting:    NewEnvelopeSetting(),
		onChange:   onChange,
	}
	update := func(p *param.Parameter) {
		f.apply()
	}
	f.AttackTime = param.Begin("Attack").Unit("ms").Mapping(envelopeTimeMapping).
		Print(param.OneFloat).Value(5).Callback(update).Create()
	f.AttackBend = param.Begin("Attack Bend").Unit("%").Mapping(envelopeBendMapping).
		Print(param.OneFloat).Value(0.75).Callback(update).Create()
	f.DecayTime = param.Begin("Decay").Unit("ms").Mapping(envelopeTimeMapping).
		Print(param.OneFloat).Value(200).Callback(update).Create()
	f.DecayBend = param.Begin("Decay Bend").Unit("%").Mapping(envelopeBendMappingInverse).
		Print(param.OneFloat).Value(0.75).Callback(update).Create()
	f.DecayLoop = param.Begin("Decay Loop").Unit("").Mapping(param.Bool{}).
		Print(param.OnOff).Value(0).Callback(update).Create()
	f.SustainValue = param.Begin("Sustain").Unit("%").Mapping(param.Identity).
		Print(param.OneFloat).Value(0.5).Callback(update).Create()
	f.ReleaseTime = param.Begin("Release").Unit("ms").Mapping(envelopeTimeMapping).
		Print(param.OneFloat).Value(2000).Callback(update).Create()
	f.ReleaseBend = param.Begin("Release Bend").Unit("").Mapping(envelopeBendMappingInverse).
		Print(param.OneFloat).Value(0.75).Callback(update).Create()
	f.ReleaseEnabled = param.Begin("Release Enabled").Unit("").Mapping(param.Bool{}).
		Print(param.OnOff).Value(1).Callback(update).Create()
	f.apply()
	return f
}

// Parameters lists the parameters in a stable order, keyed by short ids.
func (f *EnvelopeFormat) Parameters() []NamedParameter {
	return []NamedParameter{
		{"attack", f.AttackTime},
		{"attackBend", f.AttackBend},
		{"decay", f.DecayTime},
		{"decayBend", f.DecayBend},
		{"decayLoop", f.DecayLoop},
		{"sustain", f.SustainValue},
		{"release", f.ReleaseTime},
		{"releaseBend", f.ReleaseBend},
		{"releaseEnabled", f.ReleaseEnabled},
	}
}

// Setting returns the current snapshot.
func (f *EnvelopeFormat) Setting() EnvelopeSetting {
	return f.setting
}

// Batch applies several edits and emits a single snapshot.
func (f *EnvelopeFormat) Batch(edit func()) {
	f.quiet = true
	edit()
	f.quiet = false
	f.apply()
}

func (f *EnvelopeFormat) apply() {
	if f.quiet || f.ReleaseEnabled == nil {
		return
	}
	s := &f.setting
	s.AttackFrames = secondsToFrames(f.AttackTime.Value()/1000, f.sampleRate)
	s.AttackBend = f.AttackBend.Value()
	s.DecayFrames = secondsToFrames(f.DecayTime.Value()/1000, f.sampleRate)
	s.DecayBend = f.DecayBend.Value()
	s.DecayLoop = f.DecayLoop.Bool()
	s.SustainValue = f.SustainValue.Value()
	s.ReleaseFrames = secondsToFrames(f.ReleaseTime.Value()/1000, f.sampleRate)
	s.ReleaseBend = f.ReleaseBend.Value()
	s.ReleaseEnabled = f.ReleaseEnabled.Bool()
	s.Version++
	if f.onChange != nil {
		f.onChange(f.setting)
	}
}

func (f *EnvelopeFormat) applyJSON(data json.RawMessage) {
	values := map[string]float64{}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Println("failed to apply JSON to envelope format")
		return
	}
	f.Batch(func() {
		applyValues(f.Parameters(), values)
	})
}

func (f *EnvelopeFormat) toJSON() json.RawMessage {
	return toRawMessage(valuesOf(f.Parameters()))
}
