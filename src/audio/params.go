package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/jinjor/padsynth/src/param"
)

// ErrUnknownParameter ...
var ErrUnknownParameter = errors.New("unknown parameter")

// NamedParameter pairs a parameter with its id inside a group.
type NamedParameter struct {
	ID    string
	Param *param.Parameter
}

func formatFloat(value float64, digits int) string {
	return strconv.FormatFloat(value, 'f', digits, 64)
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// valuesOf collects the domain values by id.
func valuesOf(list []NamedParameter) map[string]float64 {
	values := make(map[string]float64, len(list))
	for _, p := range list {
		values[p.ID] = p.Param.Value()
	}
	return values
}

// applyValues sets every known id. Unknown ids are logged and skipped.
func applyValues(list []NamedParameter, values map[string]float64) {
	for id, value := range values {
		found := false
		for _, p := range list {
			if p.ID == id {
				p.Param.SetUnipolar(p.Param.Mapping.X(value))
				found = true
				break
			}
		}
		if !found {
			log.Printf("unknown parameter in snapshot: %s\n", id)
		}
	}
}

// ----- Snapshot ----- //

type synthJSON struct {
	Preset    json.RawMessage `json:"preset"`
	EnvelopeA json.RawMessage `json:"envelopeA"`
	EnvelopeB json.RawMessage `json:"envelopeB"`
	LFO       json.RawMessage `json:"lfo"`
	SoundA    json.RawMessage `json:"soundA"`
	SoundB    json.RawMessage `json:"soundB"`
}

func (s *Synth) applyJSON(data json.RawMessage) error {
	var j synthJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("failed to apply JSON to synth: %w", err)
	}
	if j.Preset != nil {
		s.preset.applyJSON(j.Preset)
	}
	if j.EnvelopeA != nil {
		s.envFormatA.applyJSON(j.EnvelopeA)
	}
	if j.EnvelopeB != nil {
		s.envFormatB.applyJSON(j.EnvelopeB)
	}
	if j.LFO != nil {
		s.lfoFormat.applyJSON(j.LFO)
	}
	if j.SoundA != nil {
		s.soundA.applyJSON(j.SoundA)
	}
	if j.SoundB != nil {
		s.soundB.applyJSON(j.SoundB)
	}
	return nil
}

func (s *Synth) toJSON() json.RawMessage {
	return toRawMessage(&synthJSON{
		Preset:    s.preset.toJSON(),
		EnvelopeA: s.envFormatA.toJSON(),
		EnvelopeB: s.envFormatB.toJSON(),
		LFO:       s.lfoFormat.toJSON(),
		SoundA:    s.soundA.toJSON(),
		SoundB:    s.soundB.toJSON(),
	})
}
