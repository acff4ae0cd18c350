package audio

import (
	"log"
	"sync/atomic"
)

// ----- Message ----- //

type messageKind int

const (
	messageNoteOn messageKind = iota
	messageNoteOff
	messageNoteOnAt
	messageNoteOffAt
	messageEnvelopeA
	messageEnvelopeB
	messageLFO
	messagePreset
	messageTables
	messagePanic
)

// message is the only thing crossing from the control side to the render side.
type message struct {
	kind     messageKind
	note     int
	velocity float64
	time     float64
	slot     int
	envelope EnvelopeSetting
	lfo      LFOSetting
	preset   PresetSetting
	tables   *TableSet
}

type noteEvent struct {
	on       bool
	note     int
	velocity float64
}

const (
	messageCapacity = 1024
	eventCapacity   = 1024
	voiceSeed       = 0x5eed
)

// ----- Processor ----- //

// Processor is the render side of the synth. RenderBlock must be called from one
// goroutine only. It never blocks, takes no locks and does not allocate in the
// steady state.
type Processor struct {
	sampleRate float64
	layout     *TableLayout
	loopCycles float64
	messages   chan message
	frames     uint64 // atomic

	envSettingA EnvelopeSetting
	envSettingB EnvelopeSetting
	lfoSetting  LFOSetting
	preset      PresetSetting
	current     [2]*TableSet
	waiting     [2]*TableSet

	poly     *Poly
	pool     []PadVoice
	free     []*PadVoice
	receiver *EventReceiver[noteEvent]
	random   Random

	left      []float32
	right     []float32
	blockTime float64
	eventTime float64

	renderRange func(from, to int)
	fire        func(e ScheduledEvent[noteEvent], frame int)

	envBufferA       [RenderQuantum]float64
	envBufferB       [RenderQuantum]float64
	lfoBuffer        [RenderQuantum]float64
	freqMod          [RenderQuantum]float64
	tableBuffers     [4][RenderQuantum]float64
	crossFadeBuffers [2][RenderQuantum]float64
	mixL             [RenderQuantum]float64
	mixR             [RenderQuantum]float64
}

// NewProcessor ...
func NewProcessor(sampleRate float64, layout *TableLayout, maxPoly int) *Processor {
	if maxPoly < 1 {
		maxPoly = 1
	}
	p := &Processor{
		sampleRate:  sampleRate,
		layout:      layout,
		loopCycles:  layout.LoopCycles(),
		messages:    make(chan message, messageCapacity),
		envSettingA: NewEnvelopeSetting(),
		envSettingB: NewEnvelopeSetting(),
		lfoSetting:  NewLFOSetting(),
		pool:        make([]PadVoice, maxPoly),
		free:        make([]*PadVoice, 0, maxPoly),
		receiver:    NewEventReceiver[noteEvent](sampleRate, eventCapacity),
	}
	p.random.SetSeed(voiceSeed)
	for i := len(p.pool) - 1; i >= 0; i-- {
		p.free = append(p.free, &p.pool[i])
	}
	p.poly = NewPoly(p, maxPoly)
	p.renderRange = func(from, to int) {
		p.poly.ProcessRange(p.left, p.right, from, to)
	}
	p.fire = func(e ScheduledEvent[noteEvent], frame int) {
		p.eventTime = p.blockTime + float64(frame)/p.sampleRate
		if e.Payload.on {
			p.poly.NoteOn(e.Payload.note, e.Payload.velocity)
		} else {
			p.poly.NoteOff(e.Payload.note)
		}
	}
	return p
}

// Time returns the start of the next block in seconds. Safe to call from any
// goroutine.
func (p *Processor) Time() float64 {
	return float64(atomic.LoadUint64(&p.frames)) / p.sampleRate
}

// SampleRate ...
func (p *Processor) SampleRate() float64 {
	return p.sampleRate
}

// Layout ...
func (p *Processor) Layout() *TableLayout {
	return p.layout
}

// CreateVoice takes a voice from the pool. Without published tables for both
// sounds the note is dropped.
func (p *Processor) CreateVoice(note int, velocity float64) Voice {
	if p.current[0] == nil || p.current[1] == nil {
		return nil
	}
	if len(p.free) == 0 {
		return nil
	}
	v := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	v.init(p, p.eventTime, note, velocity)
	return v
}

// RecycleVoice ...
func (p *Processor) RecycleVoice(v Voice) {
	if pv, ok := v.(*PadVoice); ok {
		p.free = append(p.free, pv)
	}
}

// Playing ...
func (p *Processor) Playing() bool {
	return p.poly.Playing()
}

// RenderBlock renders one block of RenderQuantum frames, replacing the contents
// of left and right.
func (p *Processor) RenderBlock(left, right []float32) {
	if len(left) < RenderQuantum || len(right) < RenderQuantum {
		return
	}
	left = left[:RenderQuantum]
	right = right[:RenderQuantum]
	for i := range left {
		left[i] = 0
		right[i] = 0
	}
	p.blockTime = p.Time()
	p.eventTime = p.blockTime
	p.drainMessages()
	p.left = left
	p.right = right
	p.receiver.Fragment(p.blockTime, RenderQuantum, p.renderRange, p.fire)
	p.left = nil
	p.right = nil
	for i := range p.waiting {
		if p.waiting[i] != nil {
			p.current[i] = p.waiting[i]
			p.waiting[i] = nil
		}
	}
	atomic.AddUint64(&p.frames, RenderQuantum)
}

func (p *Processor) drainMessages() {
	for {
		select {
		case m := <-p.messages:
			p.handle(&m)
		default:
			return
		}
	}
}

func (p *Processor) handle(m *message) {
	switch m.kind {
	case messageNoteOn:
		p.poly.NoteOn(m.note, m.velocity)
	case messageNoteOff:
		p.poly.NoteOff(m.note)
	case messageNoteOnAt, messageNoteOffAt:
		e := ScheduledEvent[noteEvent]{
			Time:    m.time,
			Payload: noteEvent{on: m.kind == messageNoteOnAt, note: m.note, velocity: m.velocity},
		}
		if !p.receiver.Enqueue(e) {
			log.Println("[WARN] event queue is full")
		}
	case messageEnvelopeA:
		p.envSettingA = m.envelope
	case messageEnvelopeB:
		p.envSettingB = m.envelope
	case messageLFO:
		p.lfoSetting = m.lfo
	case messagePreset:
		p.preset = m.preset
	case messageTables:
		if m.slot < 0 || m.slot > 1 || !m.tables.Fits(p.layout) {
			return
		}
		if p.poly.Playing() {
			p.waiting[m.slot] = m.tables
		} else {
			p.current[m.slot] = m.tables
			p.waiting[m.slot] = nil
		}
	case messagePanic:
		p.receiver.Clear()
		p.poly.ReleaseAll()
	}
}
