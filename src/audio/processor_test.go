package audio

import (
	"context"
	"math"
	"math/cmplx"
	"testing"

	dspfft "github.com/mjibson/go-dsp/fft"
)

func generateTestTables(t testing.TB, pad *Pad, harmonics []Harmonic) *TableSet {
	t.Helper()
	set, err := pad.Generate(context.Background(), harmonics)
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	return set
}

func singleHarmonic(position float64) []Harmonic {
	return []Harmonic{{Position: position, Level: 1, BandWidth: 0.01, Active: true}}
}

func sustainedEnvelope(attack, release uint32) EnvelopeSetting {
	s := NewEnvelopeSetting()
	s.AttackFrames = attack
	s.SustainValue = 1
	s.ReleaseFrames = release
	s.Version = 1
	return s
}

func newTestProcessor(t testing.TB, pad *Pad, a, b *TableSet) *Processor {
	t.Helper()
	p := NewProcessor(48000, pad.Layout(), 8)
	p.messages <- message{kind: messagePreset, preset: NewPreset(nil).Setting()}
	p.messages <- message{kind: messageEnvelopeA, envelope: sustainedEnvelope(480, 4800)}
	if a != nil {
		p.messages <- message{kind: messageTables, slot: 0, tables: a}
	}
	if b != nil {
		p.messages <- message{kind: messageTables, slot: 1, tables: b}
	}
	return p
}

type testOutput struct {
	left  []float32
	right []float32
}

func renderBlocks(p *Processor, blocks int) testOutput {
	out := testOutput{
		left:  make([]float32, blocks*RenderQuantum),
		right: make([]float32, blocks*RenderQuantum),
	}
	for i := 0; i < blocks; i++ {
		from := i * RenderQuantum
		p.RenderBlock(out.left[from:from+RenderQuantum], out.right[from:from+RenderQuantum])
	}
	return out
}

func TestProcessorEndToEnd(t *testing.T) {
	pad := newTestPad(t, 20)
	set := generateTestTables(t, pad, singleHarmonic(1))
	p := newTestProcessor(t, pad, set, set)
	p.messages <- message{kind: messageNoteOn, note: 69, velocity: 1}

	// 20ms
	held := renderBlocks(p, 8)
	expectEqual(t, p.Playing(), true)
	peak := 0.0
	for _, v := range held.left[480:] {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak < 0.01 || peak > 1 {
		t.Errorf("unexpected peak while holding: %v", peak)
	}

	p.messages <- message{kind: messageNoteOff, note: 69}
	frames := 0
	for p.Playing() {
		renderBlocks(p, 1)
		frames += RenderQuantum
		if frames > 48000 {
			t.Fatal("voice did not finish")
		}
	}
	if math.Abs(float64(frames-4800)) > RenderQuantum {
		t.Errorf("expected about 4800 frames of release, but got: %d", frames)
	}
	silent := renderBlocks(p, 1)
	for _, v := range silent.left {
		if v != 0 {
			t.Fatalf("expected silence, but got: %v", v)
		}
	}
}

func TestProcessorPlaysPitch(t *testing.T) {
	pad := newTestPad(t, 20)
	set := generateTestTables(t, pad, singleHarmonic(1))
	p := newTestProcessor(t, pad, set, set)
	p.messages <- message{kind: messageNoteOn, note: 69, velocity: 1}
	out := renderBlocks(p, 40)
	n := 4096
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = float64(out.left[len(out.left)-n+i])
	}
	Han(signal)
	spectrum := dspfft.FFTReal(signal)
	best := 0
	for k := 1; k < n/2; k++ {
		if cmplx.Abs(spectrum[k]) > cmplx.Abs(spectrum[best]) {
			best = k
		}
	}
	frequency := float64(best) * 48000 / float64(n)
	if math.Abs(frequency-440) > 24 {
		t.Errorf("expected about 440 Hz, but got: %v", frequency)
	}
}

func TestProcessorCrossfade(t *testing.T) {
	pad := newTestPad(t, 20)
	t1 := generateTestTables(t, pad, singleHarmonic(1))
	t2 := generateTestTables(t, pad, singleHarmonic(2))
	a := newTestProcessor(t, pad, t1, t1)
	b := newTestProcessor(t, pad, t2, t2)
	c := newTestProcessor(t, pad, t1, t1)
	for _, p := range []*Processor{a, b, c} {
		p.messages <- message{kind: messageNoteOn, note: 60, velocity: 1}
	}
	outA := renderBlocks(a, 10)
	outB := renderBlocks(b, 10)
	renderBlocks(c, 9)
	c.messages <- message{kind: messageTables, slot: 0, tables: t2}
	c.messages <- message{kind: messageTables, slot: 1, tables: t2}
	crossFade := renderBlocks(c, 1)
	expectEqual(t, c.waiting[0] == nil, true)
	expectEqual(t, c.current[0], t2)

	offset := 9 * RenderQuantum
	maxDelta := 0.0
	maxDiff := 0.0
	for i := 0; i < RenderQuantum; i++ {
		alpha := float64(i) / RenderQuantum
		x := float64(outA.left[offset+i])
		y := float64(outB.left[offset+i])
		expected := x*(1-alpha) + y*alpha
		if math.Abs(float64(crossFade.left[i])-expected) > 1e-5 {
			t.Fatalf("frame %d: expected %v, but got: %v", i, expected, crossFade.left[i])
		}
		if i > 0 {
			maxDelta = math.Max(maxDelta, math.Abs(float64(outA.left[offset+i]-outA.left[offset+i-1])))
			maxDelta = math.Max(maxDelta, math.Abs(float64(outB.left[offset+i]-outB.left[offset+i-1])))
		}
		maxDiff = math.Max(maxDiff, math.Abs(x-y))
	}
	// no step beyond the ramp
	bound := maxDelta + maxDiff/RenderQuantum + 1e-5
	for i := 1; i < RenderQuantum; i++ {
		delta := math.Abs(float64(crossFade.left[i] - crossFade.left[i-1]))
		if delta > bound {
			t.Errorf("frame %d: delta %v exceeds %v", i, delta, bound)
		}
	}
	first := math.Abs(float64(crossFade.left[0] - outA.left[offset-1]))
	if first > bound {
		t.Errorf("step into the crossfade: %v", first)
	}

	after := renderBlocks(c, 1)
	reference := renderBlocks(b, 1)
	for i := range after.left {
		if math.Abs(float64(after.left[i]-reference.left[i])) > 1e-6 {
			t.Fatalf("frame %d: expected %v, but got: %v", i, reference.left[i], after.left[i])
		}
	}
}

func TestProcessorInstallsTablesWhenSilent(t *testing.T) {
	pad := newTestPad(t, 440)
	set := generateTestTables(t, pad, singleHarmonic(1))
	p := newTestProcessor(t, pad, nil, nil)

	p.messages <- message{kind: messageNoteOn, note: 60, velocity: 1}
	renderBlocks(p, 1)
	expectEqual(t, p.Playing(), false)

	broken := &TableSet{Tables: [][]float32{make([]float32, 7)}}
	p.messages <- message{kind: messageTables, slot: 0, tables: broken}
	p.messages <- message{kind: messageTables, slot: 1, tables: set}
	renderBlocks(p, 1)
	expectEqual(t, p.current[0] == nil, true)
	expectEqual(t, p.current[1], set)
	expectEqual(t, p.waiting[1] == nil, true)

	p.messages <- message{kind: messageTables, slot: 0, tables: set}
	p.messages <- message{kind: messageNoteOn, note: 60, velocity: 1}
	renderBlocks(p, 1)
	expectEqual(t, p.Playing(), true)
}

func TestProcessorTimedNotes(t *testing.T) {
	pad := newTestPad(t, 440)
	set := generateTestTables(t, pad, singleHarmonic(1))
	p := newTestProcessor(t, pad, set, set)
	renderBlocks(p, 1)
	start := p.Time()
	p.messages <- message{kind: messageNoteOnAt, time: start + 64.5/48000, note: 69, velocity: 1}
	out := renderBlocks(p, 1)
	for i := 0; i < 64; i++ {
		if out.left[i] != 0 {
			t.Fatalf("expected silence before the event, but got %v at %d", out.left[i], i)
		}
	}
	sound := false
	for i := 64; i < RenderQuantum; i++ {
		if out.left[i] != 0 {
			sound = true
		}
	}
	expectEqual(t, sound, true)

	// late events are dropped
	p.messages <- message{kind: messageNoteOffAt, time: start, note: 69}
	renderBlocks(p, 1)
	expectEqual(t, p.Playing(), true)
}

func TestProcessorBrokenVoiceGoesSilent(t *testing.T) {
	pad := newTestPad(t, 440)
	set := generateTestTables(t, pad, singleHarmonic(1))
	broken := &TableSet{Tables: make([][]float32, len(set.Tables))}
	for i := range broken.Tables {
		broken.Tables[i] = make([]float32, pad.Layout().Size)
		for j := range broken.Tables[i] {
			broken.Tables[i][j] = float32(math.NaN())
		}
	}
	p := newTestProcessor(t, pad, broken, set)
	p.messages <- message{kind: messageNoteOn, note: 69, velocity: 1}
	out := renderBlocks(p, 2)
	for _, v := range out.left {
		if v != 0 {
			t.Fatalf("expected silence, but got: %v", v)
		}
	}
	expectEqual(t, p.Playing(), false)
	expectEqual(t, len(p.free), 8)
}

func TestProcessorPanic(t *testing.T) {
	pad := newTestPad(t, 440)
	set := generateTestTables(t, pad, singleHarmonic(1))
	p := newTestProcessor(t, pad, set, set)
	for note := 60; note < 64; note++ {
		p.messages <- message{kind: messageNoteOn, note: note, velocity: 1}
	}
	renderBlocks(p, 4)
	expectEqual(t, p.poly.NumVoices(), 4)
	p.messages <- message{kind: messagePanic}
	renderBlocks(p, 3)
	expectEqual(t, p.Playing(), false)
	expectEqual(t, len(p.free), 8)
}

func BenchmarkRenderBlock(b *testing.B) {
	pad := newTestPad(b, 20)
	set := generateTestTables(b, pad, NewHarmonicSound("A", nil).Harmonics())
	p := newTestProcessor(b, pad, set, set)
	for note := 48; note < 56; note++ {
		p.messages <- message{kind: messageNoteOn, note: note, velocity: 0.8}
	}
	left := make([]float32, RenderQuantum)
	right := make([]float32, RenderQuantum)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.RenderBlock(left, right)
	}
}
