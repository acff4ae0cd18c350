package sequencing

import "sync"

// NoteSink receives timestamped notes. Times are in seconds.
type NoteSink interface {
	NoteOnAt(time float64, note int, velocity float64)
	NoteOffAt(time float64, note int)
}

// ArpeggioPlayer plays an Arpeggio on a grid through a NoteSink. Process can
// be registered to a Sequencer; the note methods may be called from other
// goroutines.
type ArpeggioPlayer struct {
	Arpeggio      *Arpeggio
	Fragmentation *Fragmentation

	// Gate is the length of a note relative to its step.
	Gate float64

	mu       sync.Mutex
	sink     NoteSink
	retainer EventRetainer[playing]
}

type playing struct {
	note int
	end  float64
}

// NewArpeggioPlayer plays one note every scale bars.
func NewArpeggioPlayer(sink NoteSink, scale float64) *ArpeggioPlayer {
	p := &ArpeggioPlayer{
		Arpeggio: NewArpeggio(),
		Gate:     0.5,
		sink:     sink,
	}
	p.Fragmentation = NewFragmentation(scale, p.step)
	return p
}

// NoteOn ...
func (p *ArpeggioPlayer) NoteOn(note int, velocity float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Arpeggio.NoteOn(note, velocity)
}

// NoteOff ...
func (p *ArpeggioPlayer) NoteOff(note int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Arpeggio.NoteOff(note)
}

// Edit runs f while no step is being played, for changes to the arpeggio,
// the fragmentation or the gate.
func (p *ArpeggioPlayer) Edit(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f()
}

// Clear drops the held notes and ends the playing ones at the given time.
func (p *ArpeggioPlayer) Clear(time float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Arpeggio.Clear()
	for _, r := range p.retainer.Flush() {
		p.sink.NoteOffAt(time, r.Event.note)
	}
}

// Process ...
func (p *ArpeggioPlayer) Process(computeStartMillis StartMillis, t0, t1 float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Fragmentation.Equalise(computeStartMillis, t0, t1)
	// notes ending inside this window
	for _, r := range p.retainer.Completed(t1) {
		p.sink.NoteOffAt(r.Event.end, r.Event.note)
	}
}

func (p *ArpeggioPlayer) step(computeStartMillis StartMillis, index int, position, complete float64) {
	for _, r := range p.retainer.Completed(position) {
		p.sink.NoteOffAt(r.Event.end, r.Event.note)
	}
	e, ok := p.Arpeggio.EventFor(index)
	if !ok {
		return
	}
	endPosition := position + (complete-position)*p.Gate
	start := computeStartMillis(position) / 1000
	end := computeStartMillis(endPosition) / 1000
	p.sink.NoteOnAt(start, e.Note, e.Velocity)
	p.retainer.Push(playing{note: e.Note, end: end}, endPosition)
}
