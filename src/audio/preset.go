package audio

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jinjor/padsynth/src/param"
)

// ----- Preset Setting ----- //

// PresetSetting is the snapshot of the voice wide parameters. Tunings are in
// octaves, MasterVolume in dB.
type PresetSetting struct {
	MasterVolume     float64
	BlendAB          float64
	TuneA            float64
	TuneB            float64
	Tune             float64
	Stereo           float64
	LfoToBlend       float64
	LfoToVolume      float64
	LfoToPitch       float64
	LfoPanAmount     float64
	EnvBToBlend      float64
	EnvBToPitch      float64
	EnvBToLfoRate    float64
	EnvBToLfoAmount  float64
	VelocityToVolume float64
	VelocityToBlend  float64
	KeyboardToBlend  float64
	Version          uint32
}

// ----- Preset ----- //

// Preset holds the parameters shared by all voices.
type Preset struct {
	MasterVolume     *param.Parameter
	BlendAB          *param.Parameter
	TuneA            *param.Parameter
	TuneB            *param.Parameter
	Tune             *param.Parameter
	Stereo           *param.Parameter
	LfoToBlend       *param.Parameter
	LfoToVolume      *param.Parameter
	LfoToPitch       *param.Parameter
	LfoPanAmount     *param.Parameter
	EnvBToBlend      *param.Parameter
	EnvBToPitch      *param.Parameter
	EnvBToLfoRate    *param.Parameter
	EnvBToLfoAmount  *param.Parameter
	VelocityToVolume *param.Parameter
	VelocityToBlend  *param.Parameter
	KeyboardToBlend  *param.Parameter

	setting  PresetSetting
	onChange func(s PresetSetting)
	quiet    bool
}

// NewPreset ...
func NewPreset(onChange func(s PresetSetting)) *Preset {
	p := &Preset{onChange: onChange, quiet: true}
	update := func(*param.Parameter) {
		p.apply()
	}
	cents := func(name string) *param.Parameter {
		return param.Begin(name).Unit("Cs").Mapping(param.Bipolar).Print(param.Cents).
			Anchor(0.5).Value(0).Callback(update).Create()
	}
	bipolar := func(name string) *param.Parameter {
		return param.Begin(name).Mapping(param.Bipolar).Print(param.BipolarPercent).
			Anchor(0.5).Value(0).Callback(update).Create()
	}
	p.MasterVolume = param.Begin("Volume").Unit("db").Mapping(param.DefaultLevel).
		Print(param.OneFloat).Value(-6).Callback(update).Create()
	p.BlendAB = param.Begin("Mix AB").Value(0).Callback(update).Create()
	p.TuneA = cents("Tune A")
	p.TuneB = cents("Tune B")
	p.Tune = cents("Tune")
	p.Stereo = param.Begin("Stereo").Print(param.BipolarPercent).Anchor(0.5).Value(0.5).Callback(update).Create()
	p.LfoToBlend = bipolar("Lfo→MixAB")
	p.LfoToVolume = bipolar("Lfo→Volume")
	p.LfoToPitch = cents("Lfo→Pitch")
	p.LfoPanAmount = bipolar("Lfo→Pan")
	p.EnvBToBlend = param.Begin("Env→MixAB").Value(0).Callback(update).Create()
	p.EnvBToPitch = cents("Env→Pitch")
	p.EnvBToLfoRate = bipolar("Env→Rate")
	p.EnvBToLfoAmount = bipolar("Env→Amount")
	p.VelocityToVolume = param.Begin("Vel→Vol").Value(1).Callback(update).Create()
	p.VelocityToBlend = param.Begin("Vel→MixAB").Value(0).Callback(update).Create()
	p.KeyboardToBlend = bipolar("KT→MixAB")
	p.quiet = false
	p.apply()
	return p
}

// Parameters ...
func (p *Preset) Parameters() []NamedParameter {
	return []NamedParameter{
		{"masterVolume", p.MasterVolume},
		{"blendAB", p.BlendAB},
		{"tuneA", p.TuneA},
		{"tuneB", p.TuneB},
		{"tune", p.Tune},
		{"stereo", p.Stereo},
		{"lfoToBlend", p.LfoToBlend},
		{"lfoToVolume", p.LfoToVolume},
		{"lfoToPitch", p.LfoToPitch},
		{"lfoPanAmount", p.LfoPanAmount},
		{"envBToBlend", p.EnvBToBlend},
		{"envBToPitch", p.EnvBToPitch},
		{"envBToLfoRate", p.EnvBToLfoRate},
		{"envBToLfoAmount", p.EnvBToLfoAmount},
		{"velocityToVolume", p.VelocityToVolume},
		{"velocityToBlend", p.VelocityToBlend},
		{"keyboardToBlend", p.KeyboardToBlend},
	}
}

// Setting ...
func (p *Preset) Setting() PresetSetting {
	return p.setting
}

func (p *Preset) apply() {
	if p.quiet {
		return
	}
	s := &p.setting
	s.MasterVolume = p.MasterVolume.Value()
	s.BlendAB = p.BlendAB.Value()
	s.TuneA = p.TuneA.Value()
	s.TuneB = p.TuneB.Value()
	s.Tune = p.Tune.Value()
	s.Stereo = p.Stereo.Value()
	s.LfoToBlend = p.LfoToBlend.Value()
	s.LfoToVolume = p.LfoToVolume.Value()
	s.LfoToPitch = p.LfoToPitch.Value()
	s.LfoPanAmount = p.LfoPanAmount.Value()
	s.EnvBToBlend = p.EnvBToBlend.Value()
	s.EnvBToPitch = p.EnvBToPitch.Value()
	s.EnvBToLfoRate = p.EnvBToLfoRate.Value()
	s.EnvBToLfoAmount = p.EnvBToLfoAmount.Value()
	s.VelocityToVolume = p.VelocityToVolume.Value()
	s.VelocityToBlend = p.VelocityToBlend.Value()
	s.KeyboardToBlend = p.KeyboardToBlend.Value()
	s.Version++
	if p.onChange != nil {
		p.onChange(p.setting)
	}
}

func (p *Preset) applyJSON(data json.RawMessage) {
	values := map[string]float64{}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Println("failed to apply JSON to preset")
		return
	}
	p.quiet = true
	applyValues(p.Parameters(), values)
	p.quiet = false
	p.apply()
}

func (p *Preset) toJSON() json.RawMessage {
	return toRawMessage(valuesOf(p.Parameters()))
}

// ----- Preset Library ----- //

// PresetLibrary reads snapshots stored as <dir>/<name>.json.
type PresetLibrary struct {
	dir string
}

// NewPresetLibrary ...
func NewPresetLibrary(dir string) *PresetLibrary {
	return &PresetLibrary{dir: dir}
}

// List returns the preset names in alphabetical order.
func (pl *PresetLibrary) List() ([]string, error) {
	entries, err := os.ReadDir(pl.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// ApplyTo loads a preset into the synth.
func (pl *PresetLibrary) ApplyTo(name string, s *Synth) error {
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid preset name %q", name)
	}
	bytes, err := os.ReadFile(filepath.Join(pl.dir, name+".json"))
	if err != nil {
		return err
	}
	return s.ApplySnapshot(bytes)
}

// Save stores the current state of the synth.
func (pl *PresetLibrary) Save(name string, s *Synth) error {
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid preset name %q", name)
	}
	return os.WriteFile(filepath.Join(pl.dir, name+".json"), s.Snapshot(), 0666)
}
