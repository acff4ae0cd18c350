package audio

import "testing"

type testVoice struct {
	note      int
	remaining int
	released  bool
	stopped   bool
}

func (v *testVoice) Note() int {
	return v.note
}

func (v *testVoice) Process(left, right []float32, from, to int) bool {
	for i := from; i < to; i++ {
		left[i]++
		right[i]++
	}
	if v.released || v.stopped {
		v.remaining -= to - from
	}
	return v.remaining > 0
}

func (v *testVoice) Release() {
	v.released = true
}

func (v *testVoice) ReleaseImmediately() {
	v.stopped = true
}

type testFactory struct {
	created  []*testVoice
	recycled []Voice
	refuse   bool
}

func (f *testFactory) CreateVoice(note int, velocity float64) Voice {
	if f.refuse {
		return nil
	}
	v := &testVoice{note: note, remaining: 10}
	f.created = append(f.created, v)
	return v
}

func (f *testFactory) RecycleVoice(v Voice) {
	f.recycled = append(f.recycled, v)
}

func TestPolyNoteStack(t *testing.T) {
	f := &testFactory{}
	p := NewPoly(f, 8)
	p.NoteOn(60, 1)
	p.NoteOn(60, 1)
	p.NoteOn(64, 1)
	expectEqual(t, p.NumVoices(), 3)

	p.NoteOff(60)
	expectEqual(t, f.created[0].released, false)
	expectEqual(t, f.created[1].released, true)
	p.NoteOff(60)
	expectEqual(t, f.created[0].released, true)
	// no voice left for this note
	p.NoteOff(60)
	p.NoteOff(61)
	expectEqual(t, f.created[2].released, false)
}

func TestPolyRemovesFinishedVoices(t *testing.T) {
	f := &testFactory{}
	p := NewPoly(f, 8)
	p.NoteOn(60, 1)
	p.NoteOn(62, 1)
	p.NoteOff(60)
	left := make([]float32, RenderQuantum)
	right := make([]float32, RenderQuantum)
	p.ProcessRange(left, right, 0, 5)
	expectEqual(t, p.NumVoices(), 2)
	expectEqual(t, left[0], float32(2))
	p.ProcessRange(left, right, 5, 10)
	expectEqual(t, p.NumVoices(), 1)
	expectEqual(t, len(f.recycled), 1)
	expectEqual(t, f.recycled[0].Note(), 60)

	// the finished voice is no longer addressed by note off
	p.NoteOn(60, 1)
	p.NoteOff(60)
	expectEqual(t, f.created[2].released, true)
	expectEqual(t, p.Playing(), true)
}

func TestPolyDropsNotes(t *testing.T) {
	f := &testFactory{refuse: true}
	p := NewPoly(f, 2)
	p.NoteOn(60, 1)
	expectEqual(t, p.Playing(), false)

	f.refuse = false
	p.NoteOn(60, 1)
	p.NoteOn(61, 1)
	p.NoteOn(62, 1)
	expectEqual(t, p.NumVoices(), 2)
	p.NoteOn(-1, 1)
	p.NoteOn(128, 1)
	expectEqual(t, p.NumVoices(), 2)
}

func TestPolyReleaseAll(t *testing.T) {
	f := &testFactory{}
	p := NewPoly(f, 8)
	p.NoteOn(60, 1)
	p.NoteOn(67, 1)
	p.ReleaseAll()
	for _, v := range f.created {
		expectEqual(t, v.stopped, true)
	}
	left := make([]float32, RenderQuantum)
	right := make([]float32, RenderQuantum)
	p.Process(left, right)
	expectEqual(t, p.Playing(), false)
	expectEqual(t, len(f.recycled), 2)
}
