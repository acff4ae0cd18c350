package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"testing"
)

func newTestAudio(t *testing.T) (*Audio, *Synth) {
	t.Helper()
	s := newTestSynth(t)
	a, err := newAudio(s.Processor())
	expectNoError(t, err)
	t.Cleanup(func() {
		expectNoError(t, a.Close())
	})
	return a, s
}

func TestBenchmark(t *testing.T) {
	polyphony := 10
	times := 1000

	audio, s := newTestAudio(t)
	out := make([]byte, audio.bufferSizeInBytes)
	expectNoError(t, s.SetParameter("lfoToPitch", 0.6))
	expectNoError(t, s.SetParameter("lfoToBlend", 0.8))
	expectNoError(t, s.SetParameter("stereo", 0.8))
	_, err := audio.Read(out)
	expectNoError(t, err)
	for n := 0; n < polyphony; n++ {
		s.NoteOn(48+n, 1)
	}
	start := now()
	for n := 0; n < times; n++ {
		_, err = audio.Read(out)
		expectNoError(t, err)
	}
	end := now()
	averageProcessTime := (end - start) / float64(times) * 1000
	fmt.Printf("average process time: %.2fms\n", averageProcessTime)
}

func TestWriteSample(t *testing.T) {
	tests := []struct {
		value    float32
		expected int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-2, -32767},
		{0.5, 16383},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.value), func(t *testing.T) {
			buf := make([]byte, 2)
			writeSample(buf, tt.value)
			expectEqual(t, int16(binary.LittleEndian.Uint16(buf)), tt.expected)
		})
	}
}

func TestAudioReadIsIndependentOfBufferSize(t *testing.T) {
	render := func(t *testing.T, chunk int) []byte {
		a, s := newTestAudio(t)
		s.NoteOn(60, 1)
		out := make([]byte, 0, 4096*bytesPerSample)
		buf := make([]byte, chunk*bytesPerSample)
		for len(out) < cap(out) {
			n, err := a.Read(buf)
			expectNoError(t, err)
			out = append(out, buf[:n]...)
		}
		return out[:cap(out)]
	}
	expected := render(t, RenderQuantum)
	for _, chunk := range []int{1, 100, 333, 1024} {
		t.Run(fmt.Sprint(chunk), func(t *testing.T) {
			actual := render(t, chunk)
			for i := range expected {
				if actual[i] != expected[i] {
					t.Fatalf("byte %d differs", i)
				}
			}
		})
	}
}

func TestAudioReadStopsWhenCancelled(t *testing.T) {
	a, _ := newTestAudio(t)
	ctx, cancel := context.WithCancel(context.Background())
	a.ctx = ctx
	cancel()
	n, err := a.Read(make([]byte, 16))
	expectEqual(t, n, 0)
	if err == nil {
		t.Error("expected EOF")
	}
}

func TestGetFFT(t *testing.T) {
	a, s := newTestAudio(t)
	ctx := context.Background()
	if a.GetFFT(ctx) != nil {
		t.Error("expected no spectrum before playing")
	}
	s.NoteOn(69, 1)
	buf := make([]byte, fftSize*bytesPerSample)
	for i := 0; i < 4; i++ {
		_, err := a.Read(buf)
		expectNoError(t, err)
	}
	spectrum := a.GetFFT(ctx)
	expectEqual(t, len(spectrum), fftSize/2)
	best := 0
	for k := range spectrum {
		if spectrum[k] > spectrum[best] {
			best = k
		}
	}
	frequency := float64(best) * s.Processor().SampleRate() / fftSize
	if math.Abs(frequency-440) > 48 {
		t.Errorf("expected a peak near 440 Hz, but got: %v", frequency)
	}
	if a.GetFFT(ctx) != nil {
		t.Error("expected no spectrum without new frames")
	}
}
