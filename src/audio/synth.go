package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/jinjor/padsynth/src/param"
)

// Options ...
type Options struct {
	SampleRate      float64
	TableExponent   int
	LowestFrequency float64
	MaxPoly         int
}

// DefaultOptions ...
func DefaultOptions() Options {
	return Options{
		SampleRate:      48000,
		TableExponent:   16,
		LowestFrequency: 20,
		MaxPoly:         32,
	}
}

// ----- Synth ----- //

// Synth is the control side. Its methods may be called from any goroutine; they
// are serialized internally and talk to the Processor by messages only.
type Synth struct {
	ctx       context.Context
	mu        sync.Mutex
	processor *Processor
	pad       *Pad

	preset     *Preset
	envFormatA *EnvelopeFormat
	envFormatB *EnvelopeFormat
	lfoFormat  *LFOFormat
	soundA     *HarmonicSound
	soundB     *HarmonicSound

	workers   [2]*PadWorker
	requests  *PadWorker
	delivery  sync.WaitGroup
	params    map[string]*param.Parameter
	ids       []string
}

// NewSynth starts generating the tables of both sounds right away.
func NewSynth(ctx context.Context, o Options) (*Synth, error) {
	layout, err := NewTableLayout(o.TableExponent, o.SampleRate, o.LowestFrequency)
	if err != nil {
		return nil, fmt.Errorf("failed to create synth: %w", err)
	}
	pad, err := NewPad(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to create synth: %w", err)
	}
	s := &Synth{
		ctx:       ctx,
		processor: NewProcessor(o.SampleRate, layout, o.MaxPoly),
		pad:       pad,
		params:    make(map[string]*param.Parameter),
	}
	s.workers[0] = NewPadWorker(ctx, pad)
	s.workers[1] = NewPadWorker(ctx, pad)
	s.requests = NewPadWorker(ctx, pad)

	// every format posts its initial setting while being constructed
	s.preset = NewPreset(func(setting PresetSetting) {
		s.post(message{kind: messagePreset, preset: setting})
	})
	s.envFormatA = NewEnvelopeFormat(o.SampleRate, func(setting EnvelopeSetting) {
		s.post(message{kind: messageEnvelopeA, envelope: setting})
	})
	s.envFormatA.SustainValue.Set(1.0)
	s.envFormatB = NewEnvelopeFormat(o.SampleRate, func(setting EnvelopeSetting) {
		s.post(message{kind: messageEnvelopeB, envelope: setting})
	})
	s.envFormatB.Batch(func() {
		s.envFormatB.AttackTime.Set(1000.0)
		s.envFormatB.AttackBend.Set(0.5)
		s.envFormatB.SustainValue.Set(1.0)
		s.envFormatB.ReleaseEnabled.Set(0)
	})
	s.lfoFormat = NewLFOFormat(func(setting LFOSetting) {
		s.post(message{kind: messageLFO, lfo: setting})
	})
	s.soundA = NewHarmonicSound("A", func(sound *HarmonicSound) {
		s.regenerate(0, sound)
	})
	s.soundB = NewHarmonicSound("B", func(sound *HarmonicSound) {
		s.regenerate(1, sound)
	})
	s.regenerate(0, s.soundA)
	s.regenerate(1, s.soundB)

	s.register("", s.preset.Parameters())
	s.register("envA.", s.envFormatA.Parameters())
	s.register("envB.", s.envFormatB.Parameters())
	s.register("lfo.", s.lfoFormat.Parameters())
	s.register("soundA.", s.soundA.Parameters())
	s.register("soundB.", s.soundB.Parameters())
	sort.Strings(s.ids)
	return s, nil
}

func (s *Synth) register(prefix string, list []NamedParameter) {
	for _, p := range list {
		id := prefix + p.ID
		s.params[id] = p.Param
		s.ids = append(s.ids, id)
	}
}

// post hands a message to the render side. It only blocks while the queue is
// full.
func (s *Synth) post(m message) {
	select {
	case s.processor.messages <- m:
	case <-s.ctx.Done():
	}
}

func (s *Synth) regenerate(slot int, sound *HarmonicSound) {
	ch := s.workers[slot].Update(sound.harmonics)
	s.delivery.Add(1)
	go func() {
		defer s.delivery.Done()
		select {
		case set := <-ch:
			if set != nil {
				s.post(message{kind: messageTables, slot: slot, tables: set})
			}
		case <-s.ctx.Done():
		}
	}()
}

// WaitTables blocks until every requested table set has been handed to the
// render side.
func (s *Synth) WaitTables() {
	s.delivery.Wait()
}

// Processor ...
func (s *Synth) Processor() *Processor {
	return s.processor
}

// Time is the render time in seconds.
func (s *Synth) Time() float64 {
	return s.processor.Time()
}

// ----- Parameters ----- //

// ParameterIDs ...
func (s *Synth) ParameterIDs() []string {
	return append([]string(nil), s.ids...)
}

// Parameter ...
func (s *Synth) Parameter(id string) (*param.Parameter, error) {
	p, ok := s.params[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownParameter)
	}
	return p, nil
}

// SetParameter sets a parameter by its unipolar value.
func (s *Synth) SetParameter(id string, unipolar float64) error {
	p, err := s.Parameter(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.SetUnipolar(unipolar)
	return nil
}

// GetParameter returns the unipolar value.
func (s *Synth) GetParameter(id string) (float64, error) {
	p, err := s.Parameter(id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.Unipolar(), nil
}

// PrintParameter ...
func (s *Synth) PrintParameter(id string) (string, error) {
	p, err := s.Parameter(id)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.String(), nil
}

// ParseParameter sets a parameter from printed text such as "-12 db".
func (s *Synth) ParseParameter(id string, text string) error {
	p, err := s.Parameter(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.Parse(text)
}

// ----- Notes ----- //

// NoteOn plays at the start of the next block.
func (s *Synth) NoteOn(note int, velocity float64) {
	s.post(message{kind: messageNoteOn, note: note, velocity: velocity})
}

// NoteOff ...
func (s *Synth) NoteOff(note int) {
	s.post(message{kind: messageNoteOff, note: note})
}

// NoteOnAt plays at an exact render time in seconds.
func (s *Synth) NoteOnAt(time float64, note int, velocity float64) {
	s.post(message{kind: messageNoteOnAt, time: time, note: note, velocity: velocity})
}

// NoteOffAt ...
func (s *Synth) NoteOffAt(time float64, note int) {
	s.post(message{kind: messageNoteOffAt, time: time, note: note})
}

// Panic fades out every voice and drops pending events.
func (s *Synth) Panic() {
	s.post(message{kind: messagePanic})
}

// ----- Sounds ----- //

// SoundA ...
func (s *Synth) SoundA() *HarmonicSound {
	return s.soundA
}

// SoundB ...
func (s *Synth) SoundB() *HarmonicSound {
	return s.soundB
}

// Preset ...
func (s *Synth) Preset() *Preset {
	return s.preset
}

// EnvelopeA ...
func (s *Synth) EnvelopeA() *EnvelopeFormat {
	return s.envFormatA
}

// EnvelopeB ...
func (s *Synth) EnvelopeB() *EnvelopeFormat {
	return s.envFormatB
}

// LFO ...
func (s *Synth) LFO() *LFOFormat {
	return s.lfoFormat
}

// Edit runs f with the control side locked, for direct edits of the formats.
func (s *Synth) Edit(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f()
}

// SwitchSounds swaps the parameters of sound A and B.
func (s *Synth) SwitchSounds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.soundA.Parameters()
	b := s.soundB.Parameters()
	s.soundA.Batch(func() {
		s.soundB.Batch(func() {
			for i := range a {
				tmp := a[i].Param.Value()
				a[i].Param.Set(b[i].Param.Value())
				b[i].Param.Set(tmp)
			}
		})
	})
}

// RequestTableRegeneration generates a table set for any profile without
// installing it.
func (s *Synth) RequestTableRegeneration(harmonics []Harmonic) <-chan *TableSet {
	return s.requests.Update(harmonics)
}

// InstallTables publishes a table set for sound slot 0 (A) or 1 (B).
func (s *Synth) InstallTables(slot int, set *TableSet) error {
	if slot != 0 && slot != 1 {
		return fmt.Errorf("invalid slot %d", slot)
	}
	if !set.Fits(s.processor.layout) {
		return fmt.Errorf("table set does not fit the layout")
	}
	s.post(message{kind: messageTables, slot: slot, tables: set})
	return nil
}

// ----- Snapshot ----- //

// Snapshot serialises every parameter value.
func (s *Synth) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	bytes, err := json.Marshal(s.toJSON())
	if err != nil {
		panic(err)
	}
	return bytes
}

// ApplySnapshot ...
func (s *Synth) ApplySnapshot(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyJSON(data)
}
