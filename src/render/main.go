package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/jinjor/padsynth/src/audio"
	"github.com/jinjor/padsynth/src/config"
	"github.com/jinjor/padsynth/src/sequencing"
)

// 16 steps per bar, two messages per step, must fit the message queue.
const maxBars = 16

func main() {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)
	output := flag.String("o", "out.wav", "output WAV file")
	bars := flag.Float64("bars", 4, "length of the phrase in bars")
	notes := flag.String("notes", "60,64,67", "held notes, comma separated")
	preset := flag.String("preset", "", "preset to load before rendering")
	mode := flag.Float64("mode", 0, "arpeggio mode (0-1)")
	octaves := flag.Float64("octaves", 0, "arpeggio octaves (0-1)")
	tail := flag.Duration("tail", 2*time.Second, "time rendered after the phrase")
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	if err := render(cfg, *output, *bars, *notes, *preset, *mode, *octaves, *tail); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Printf("rendered %s\n", *output)
}

func parseNotes(s string) ([]int, error) {
	var notes []int
	for _, item := range strings.Split(s, ",") {
		note, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("invalid note %q: %w", item, err)
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func render(cfg config.Config, output string, bars float64, noteList, preset string, mode, octaves float64, tail time.Duration) error {
	if bars <= 0 || bars > maxBars {
		return fmt.Errorf("bars must be in (0, %d]", maxBars)
	}
	notes, err := parseNotes(noteList)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	synth, err := audio.NewSynth(ctx, cfg.Options())
	if err != nil {
		return err
	}
	if preset != "" {
		if err := audio.NewPresetLibrary(cfg.PresetDir).ApplyTo(preset, synth); err != nil {
			return err
		}
	}
	log.Println("generating tables...")
	synth.WaitTables()

	seq := sequencing.NewSequencer(nil)
	seq.SetBpm(cfg.Bpm)
	player := sequencing.NewArpeggioPlayer(synth, 1.0/16.0)
	player.Arpeggio.Mode.SetUnipolar(mode)
	player.Arpeggio.Octaves.SetUnipolar(octaves)
	for _, note := range notes {
		player.NoteOn(note, 1)
	}
	seq.AddProcessor(player.Process, 0)
	seq.Offline(bars)
	end := seq.BarsToMillis(bars) / 1000
	player.Clear(end)

	streamer := audio.NewStreamer(synth.Processor())
	format := streamer.Format()
	frames := format.SampleRate.N(time.Duration(end*float64(time.Second)) + tail)

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := wav.Encode(f, beep.Take(frames, streamer), format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", output, err)
	}
	return f.Close()
}
