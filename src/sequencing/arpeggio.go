package sequencing

import (
	"github.com/jinjor/padsynth/src/audio"
	"github.com/jinjor/padsynth/src/param"
)

// NoteEvent ...
type NoteEvent struct {
	Note     int
	Velocity float64
}

// Mode picks the event of a step from the held notes. size is len(stack) and
// is never zero.
type Mode func(stack []NoteEvent, octaves, stepIndex, size int) NoteEvent

const randomSeed = 0xF303F

// ModeUp ...
func ModeUp(stack []NoteEvent, octaves, stepIndex, size int) NoteEvent {
	amount := size * octaves
	e := stack[stepIndex%size]
	octave := (stepIndex % amount) / size
	return NoteEvent{Note: e.Note + octave*12, Velocity: e.Velocity}
}

// ModeDown ...
func ModeDown(stack []NoteEvent, octaves, stepIndex, size int) NoteEvent {
	amount := size * octaves
	e := stack[(size-1)-stepIndex%size]
	octave := (octaves - 1) - (stepIndex%amount)/size
	return NoteEvent{Note: e.Note + octave*12, Velocity: e.Velocity}
}

// ModeUpDown goes up and down without repeating the turning notes.
func ModeUpDown(stack []NoteEvent, octaves, stepIndex, size int) NoteEvent {
	amount := size * octaves
	length := amount*2 - 2
	if length < 1 {
		length = 1
	}
	i := stepIndex % length
	if i >= amount {
		i = length - i
	}
	e := stack[i%size]
	return NoteEvent{Note: e.Note + (i/size)*12, Velocity: e.Velocity}
}

func zigzagLength(size int) int {
	if size <= 1 {
		return 1
	}
	return (size - 1) << 1
}

func zigzagIndex(stepIndex, size int) int {
	length := zigzagLength(size)
	local := stepIndex % length
	if local < size {
		return local
	}
	return length - local
}

// ModeZigzag bounces inside the stack and moves to the next octave per round.
func ModeZigzag(stack []NoteEvent, octaves, stepIndex, size int) NoteEvent {
	e := stack[zigzagIndex(stepIndex, size)]
	octave := zigzagIndex(stepIndex/zigzagLength(size), octaves)
	return NoteEvent{Note: e.Note + octave*12, Velocity: e.Velocity}
}

// ModeRandom is random but the same for every step index.
func ModeRandom(stack []NoteEvent, octaves, stepIndex, size int) NoteEvent {
	r := audio.NewRandom(randomSeed + int64(stepIndex)*0xDEAF)
	e := stack[r.Intn(size)]
	octave := r.Intn(octaves)
	return NoteEvent{Note: e.Note + octave*12, Velocity: e.Velocity}
}

// ----- Arpeggio ----- //

// Arpeggio turns held notes into one note per step. Not safe for concurrent
// use.
type Arpeggio struct {
	Octaves *param.Parameter
	Mode    *param.Parameter

	// RemoveOnNextStep keeps a released note until the next step was played.
	RemoveOnNextStep bool

	modes       []Mode
	stack       []NoteEvent
	removeQueue []int
}

// NewArpeggio creates an arpeggio with Up, Down, Up & Down, Zigzag and Random.
func NewArpeggio() *Arpeggio {
	return NewArpeggioWithModes(
		[]Mode{ModeUp, ModeDown, ModeUpDown, ModeZigzag, ModeRandom},
		[]string{"Up", "Down", "Up & Down", "Zigzag", "Random"},
	)
}

// NewArpeggioWithModes ...
func NewArpeggioWithModes(modes []Mode, names []string) *Arpeggio {
	return &Arpeggio{
		Octaves: param.Begin("Octaves").Unit("").Mapping(param.LinearInt{Min: 1, Max: 5}).
			Print(param.NoFloat).Value(1).Create(),
		Mode: param.Begin("Mode").Unit("").Mapping(param.LinearInt{Min: 0, Max: len(modes) - 1}).
			Print(param.Names(names...)).Value(0).Create(),
		RemoveOnNextStep: true,
		modes:            modes,
	}
}

// NoteOn ...
func (a *Arpeggio) NoteOn(note int, velocity float64) {
	a.stack = append(a.stack, NoteEvent{Note: note, Velocity: velocity})
}

// NoteOff ...
func (a *Arpeggio) NoteOff(note int) {
	if a.RemoveOnNextStep {
		a.removeQueue = append(a.removeQueue, note)
	} else {
		a.remove(note)
	}
}

// Clear drops every held note.
func (a *Arpeggio) Clear() {
	a.stack = a.stack[:0]
	a.removeQueue = a.removeQueue[:0]
}

// Held is the number of held notes.
func (a *Arpeggio) Held() int {
	return len(a.stack)
}

// EventFor returns the event of a step, or false when no note is held.
func (a *Arpeggio) EventFor(stepIndex int) (NoteEvent, bool) {
	size := len(a.stack)
	if size == 0 || stepIndex < 0 {
		return NoteEvent{}, false
	}
	mode := a.Mode.Int()
	if mode < 0 || mode >= len(a.modes) {
		mode = 0
	}
	e := a.modes[mode](a.stack, a.Octaves.Int(), stepIndex, size)
	for len(a.removeQueue) > 0 {
		last := len(a.removeQueue) - 1
		a.remove(a.removeQueue[last])
		a.removeQueue = a.removeQueue[:last]
	}
	return e, true
}

func (a *Arpeggio) remove(note int) {
	kept := a.stack[:0]
	for _, e := range a.stack {
		if e.Note != note {
			kept = append(kept, e)
		}
	}
	a.stack = kept
}
