package audio

import "log"

// ----- Poly ----- //

// Voice is one playing note.
type Voice interface {
	Note() int
	// Process adds frames [from, to) to left and right and reports whether the
	// voice is still running.
	Process(left, right []float32, from, to int) bool
	Release()
	ReleaseImmediately()
}

// VoiceFactory creates voices. A nil voice drops the note.
type VoiceFactory interface {
	CreateVoice(note int, velocity float64) Voice
}

// VoiceRecycler is implemented by factories that reuse finished voices.
type VoiceRecycler interface {
	RecycleVoice(v Voice)
}

const numNotes = 128

// Poly is the polyphonic render loop over any VoiceFactory.
type Poly struct {
	factory  VoiceFactory
	recycler VoiceRecycler
	voices   []Voice
	voiceMap [numNotes][]Voice
}

// NewPoly ...
func NewPoly(factory VoiceFactory, maxPoly int) *Poly {
	p := &Poly{
		factory: factory,
		voices:  make([]Voice, 0, maxPoly),
	}
	p.recycler, _ = factory.(VoiceRecycler)
	for i := range p.voiceMap {
		p.voiceMap[i] = make([]Voice, 0, 8)
	}
	return p
}

// NoteOn ...
func (p *Poly) NoteOn(note int, velocity float64) {
	if note < 0 || note >= numNotes {
		log.Printf("note out of range: %d\n", note)
		return
	}
	if len(p.voices) == cap(p.voices) {
		log.Printf("[WARN] voice limit reached, note %d dropped\n", note)
		return
	}
	v := p.factory.CreateVoice(note, velocity)
	if v == nil {
		return
	}
	p.voices = append(p.voices, v)
	p.voiceMap[note] = append(p.voiceMap[note], v)
}

// NoteOff releases the latest voice of the note.
func (p *Poly) NoteOff(note int) {
	if note < 0 || note >= numNotes {
		log.Printf("note out of range: %d\n", note)
		return
	}
	stack := p.voiceMap[note]
	if len(stack) == 0 {
		log.Println("note off without note on")
		return
	}
	v := stack[len(stack)-1]
	stack[len(stack)-1] = nil
	p.voiceMap[note] = stack[:len(stack)-1]
	v.Release()
}

// Process renders a whole block.
func (p *Poly) Process(left, right []float32) {
	p.ProcessRange(left, right, 0, len(left))
}

// ProcessRange renders [from, to) and removes the voices that finished.
func (p *Poly) ProcessRange(left, right []float32, from, to int) {
	if to <= from {
		return
	}
	for index := len(p.voices) - 1; index >= 0; index-- {
		v := p.voices[index]
		if v.Process(left, right, from, to) {
			continue
		}
		p.remove(index)
	}
}

func (p *Poly) remove(index int) {
	v := p.voices[index]
	copy(p.voices[index:], p.voices[index+1:])
	p.voices[len(p.voices)-1] = nil
	p.voices = p.voices[:len(p.voices)-1]
	note := v.Note()
	if note >= 0 && note < numNotes {
		stack := p.voiceMap[note]
		for i, w := range stack {
			if w == v {
				copy(stack[i:], stack[i+1:])
				stack[len(stack)-1] = nil
				p.voiceMap[note] = stack[:len(stack)-1]
				break
			}
		}
	}
	if p.recycler != nil {
		p.recycler.RecycleVoice(v)
	}
}

// Playing ...
func (p *Poly) Playing() bool {
	return len(p.voices) > 0
}

// NumVoices ...
func (p *Poly) NumVoices() int {
	return len(p.voices)
}

// ReleaseAll fades every voice out quickly. Voices are removed once silent.
func (p *Poly) ReleaseAll() {
	for _, v := range p.voices {
		v.ReleaseImmediately()
	}
	for i := range p.voiceMap {
		stack := p.voiceMap[i]
		for j := range stack {
			stack[j] = nil
		}
		p.voiceMap[i] = stack[:0]
	}
}
