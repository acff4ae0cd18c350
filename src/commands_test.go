package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/jinjor/padsynth/src/audio"
	"github.com/jinjor/padsynth/src/config"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestHost(t *testing.T) (*host, *bytes.Buffer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	synth, err := audio.NewSynth(ctx, audio.Options{
		SampleRate:      48000,
		TableExponent:   11,
		LowestFrequency: 20,
		MaxPoly:         8,
	})
	expectNoError(t, err)
	cfg := config.Load()
	cfg.PresetDir = t.TempDir()
	cfg.TableDir = t.TempDir()
	cfg.Arpeggio = false
	h := newHost(ctx, synth, cfg)
	t.Cleanup(h.sequencer.Stop)
	out := &bytes.Buffer{}
	h.setOutput(out)
	return h, out
}

func TestParseCommand(t *testing.T) {
	command, err := parseCommand("parse masterVolume -12%20db")
	expectNoError(t, err)
	expectEqual(t, len(command), 3)
	expectEqual(t, command[2], "-12 db")

	_, err = parseCommand("set %zz 1")
	if err == nil {
		t.Error("expected an error")
	}
}

func TestHandleParameters(t *testing.T) {
	h, out := newTestHost(t)
	expectNoError(t, h.handle([]string{"set", "masterVolume", "1"}))
	expectEqual(t, strings.HasPrefix(out.String(), "param masterVolume 1.000000 "), true)

	out.Reset()
	expectNoError(t, h.handle([]string{"parse", "masterVolume", "-12", "db"}))
	value, err := h.synth.GetParameter("masterVolume")
	expectNoError(t, err)
	if value >= 1 {
		t.Errorf("expected the volume to be lowered, but got: %v", value)
	}

	out.Reset()
	expectNoError(t, h.handle([]string{"params"}))
	expectEqual(t, strings.Count(out.String(), "\n"), len(h.synth.ParameterIDs()))

	err = h.handle([]string{"get", "nothing"})
	expectEqual(t, errors.Is(err, audio.ErrUnknownParameter), true)
}

func TestHandleInvalidCommands(t *testing.T) {
	h, _ := newTestHost(t)
	for _, command := range [][]string{
		{},
		{""},
		{"unknown"},
		{"set", "masterVolume"},
		{"set", "masterVolume", "loud"},
		{"noteOn", "60"},
		{"sound", "randomize", "C"},
		{"preset", "load", "../secret"},
		{"tables", "load", "A", "../secret"},
		{"arp", "swing", "1"},
	} {
		if err := h.handle(command); err == nil {
			t.Errorf("expected an error for %v", command)
		}
	}
}

func TestReceiveCommands(t *testing.T) {
	h, out := newTestHost(t)
	input := strings.Join([]string{
		"set stereo 0",
		"bogus",
		"get stereo",
	}, "\n")
	expectNoError(t, receiveCommands(context.Background(), strings.NewReader(input), h))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	expectEqual(t, len(lines), 2)
	expectEqual(t, lines[0], lines[1])
}

func TestHandlePresets(t *testing.T) {
	h, out := newTestHost(t)
	expectNoError(t, h.handle([]string{"set", "blendAB", "0.25"}))
	expectNoError(t, h.handle([]string{"preset", "save", "quarter"}))
	expectNoError(t, h.handle([]string{"set", "blendAB", "1"}))

	out.Reset()
	expectNoError(t, h.handle([]string{"preset", "list"}))
	expectEqual(t, out.String(), "presets quarter\n")

	expectNoError(t, h.handle([]string{"preset", "load", "quarter"}))
	value, err := h.synth.GetParameter("blendAB")
	expectNoError(t, err)
	if math.Abs(value-0.25) > 1e-6 {
		t.Errorf("expected 0.25, but got: %v", value)
	}
}

func TestHandleSounds(t *testing.T) {
	h, _ := newTestHost(t)
	expectNoError(t, h.handle([]string{"sound", "randomize", "A"}))
	expectNoError(t, h.handle([]string{"sound", "copy", "A", "B"}))
	a := h.synth.SoundA().Parameters()
	b := h.synth.SoundB().Parameters()
	for i := range a {
		expectEqual(t, a[i].Param.Value(), b[i].Param.Value())
	}
	expectNoError(t, h.handle([]string{"sound", "reset", "A"}))
	expectEqual(t, h.synth.SoundA().BandWidth.Value(), 60.0)
}

func TestArpeggioRouting(t *testing.T) {
	h, out := newTestHost(t)
	held := func() int {
		var n int
		h.player.Edit(func() {
			n = h.player.Arpeggio.Held()
		})
		return n
	}
	h.NoteOn(60, 1)
	expectEqual(t, held(), 0)

	expectNoError(t, h.handle([]string{"arp", "on"}))
	expectEqual(t, h.sequencer.Running(), true)
	expectNoError(t, h.handle([]string{"noteOn", "64", "1"}))
	expectNoError(t, h.handle([]string{"noteOn", "67", "1"}))
	expectEqual(t, held(), 2)

	out.Reset()
	expectNoError(t, h.handle([]string{"arp", "mode", "1"}))
	expectEqual(t, out.String(), "arp mode Random\n")

	expectNoError(t, h.handle([]string{"arp", "off"}))
	expectEqual(t, held(), 0)
	expectEqual(t, h.sequencer.Running(), false)
}

func TestMidiControllers(t *testing.T) {
	h, _ := newTestHost(t)
	h.Controller(7, 0.5)
	value, err := h.synth.GetParameter("masterVolume")
	expectNoError(t, err)
	if math.Abs(value-0.5) > 1e-6 {
		t.Errorf("expected 0.5, but got: %v", value)
	}
	// unmapped controllers are ignored
	h.Controller(64, 1)
	h.PitchWheel(0)
	value, err = h.synth.GetParameter("tune")
	expectNoError(t, err)
	if math.Abs(value-0.5) > 1e-6 {
		t.Errorf("expected 0.5, but got: %v", value)
	}
}
