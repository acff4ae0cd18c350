package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jinjor/padsynth/src/audio"
	"github.com/jinjor/padsynth/src/config"
	"github.com/jinjor/padsynth/src/sequencing"
)

// host routes commands and MIDI to the synth, directly or through the
// arpeggio.
type host struct {
	ctx       context.Context
	synth     *audio.Synth
	sequencer *sequencing.Sequencer
	player    *sequencing.ArpeggioPlayer
	presets   *audio.PresetLibrary
	tableDir  string

	mu       sync.Mutex
	out      io.Writer
	arpeggio bool
	random   *audio.Random
}

var _ sequencing.MidiHandler = (*host)(nil)

func newHost(ctx context.Context, synth *audio.Synth, cfg config.Config) *host {
	h := &host{
		ctx:       ctx,
		synth:     synth,
		sequencer: sequencing.NewSequencer(func() float64 { return synth.Time() * 1000 }),
		player:    sequencing.NewArpeggioPlayer(synth, 1.0/16.0),
		presets:   audio.NewPresetLibrary(cfg.PresetDir),
		tableDir:  cfg.TableDir,
		random:    audio.NewRandom(time.Now().UnixNano()),
	}
	h.sequencer.SetBpm(cfg.Bpm)
	h.sequencer.AddProcessor(h.player.Process, 0)
	h.setArpeggio(cfg.Arpeggio)
	return h
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func (h *host) setOutput(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.out = w
}

func (h *host) send(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.out == nil {
		return
	}
	if _, err := h.out.Write([]byte(line + "\n")); err != nil {
		log.Printf("failed to send: %v\n", err)
	}
}

func (h *host) reply(items ...string) {
	for i, item := range items {
		items[i] = url.QueryEscape(item)
	}
	h.send(strings.Join(items, " "))
}

// ----- MIDI ----- //

func (h *host) NoteOn(note int, velocity float64) {
	if h.arpeggioEnabled() {
		h.player.NoteOn(note, velocity)
		return
	}
	h.synth.NoteOn(note, velocity)
}

func (h *host) NoteOff(note int) {
	if h.arpeggioEnabled() {
		h.player.NoteOff(note)
		return
	}
	h.synth.NoteOff(note)
}

// PitchWheel bends the master tune.
func (h *host) PitchWheel(bipolar float64) {
	if err := h.synth.SetParameter("tune", (bipolar+1)/2); err != nil {
		log.Println(err)
	}
}

var controllers = map[int]string{
	1:  "blendAB",
	7:  "masterVolume",
	10: "stereo",
}

func (h *host) Controller(id int, unipolar float64) {
	name, ok := controllers[id]
	if !ok {
		return
	}
	if err := h.synth.SetParameter(name, unipolar); err != nil {
		log.Println(err)
	}
}

// ----- Arpeggio ----- //

func (h *host) arpeggioEnabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.arpeggio
}

func (h *host) setArpeggio(enabled bool) {
	h.mu.Lock()
	h.arpeggio = enabled
	h.mu.Unlock()
	if !enabled {
		h.player.Clear(h.synth.Time())
	}
	h.sequencer.PlayMode(h.ctx, enabled)
}

// ----- Commands ----- //

func expectArgs(command []string, n int) error {
	if len(command) < n+1 {
		return fmt.Errorf("%s: %d arguments required", command[0], n)
	}
	return nil
}

func (h *host) handle(command []string) error {
	if len(command) == 0 || command[0] == "" {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "set":
		if err := expectArgs(command, 2); err != nil {
			return err
		}
		value, err := strconv.ParseFloat(command[2], 64)
		if err != nil {
			return err
		}
		if err := h.synth.SetParameter(command[1], value); err != nil {
			return err
		}
		return h.reportParameter(command[1])
	case "parse":
		if err := expectArgs(command, 2); err != nil {
			return err
		}
		if err := h.synth.ParseParameter(command[1], strings.Join(command[2:], " ")); err != nil {
			return err
		}
		return h.reportParameter(command[1])
	case "get":
		if err := expectArgs(command, 1); err != nil {
			return err
		}
		return h.reportParameter(command[1])
	case "params":
		for _, id := range h.synth.ParameterIDs() {
			if err := h.reportParameter(id); err != nil {
				return err
			}
		}
	case "noteOn":
		if err := expectArgs(command, 2); err != nil {
			return err
		}
		note, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		velocity, err := strconv.ParseFloat(command[2], 64)
		if err != nil {
			return err
		}
		h.NoteOn(note, velocity)
	case "noteOff":
		if err := expectArgs(command, 1); err != nil {
			return err
		}
		note, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		h.NoteOff(note)
	case "panic":
		h.player.Clear(h.synth.Time())
		h.synth.Panic()
	case "switch":
		h.synth.SwitchSounds()
	case "sound":
		return h.handleSound(command)
	case "preset":
		return h.handlePreset(command)
	case "tables":
		return h.handleTables(command)
	case "arp":
		return h.handleArpeggio(command)
	case "bpm":
		if err := expectArgs(command, 1); err != nil {
			return err
		}
		bpm, err := strconv.ParseFloat(command[1], 64)
		if err != nil {
			return err
		}
		h.sequencer.SetBpm(bpm)
		h.reply("bpm", h.sequencer.Bpm.String())
	case "play":
		h.sequencer.Start(h.ctx)
	case "pause":
		h.sequencer.Pause()
	case "stop":
		h.sequencer.Stop()
	default:
		return fmt.Errorf("unknown command %q", command[0])
	}
	return nil
}

func (h *host) reportParameter(id string) error {
	value, err := h.synth.GetParameter(id)
	if err != nil {
		return err
	}
	text, err := h.synth.PrintParameter(id)
	if err != nil {
		return err
	}
	h.reply("param", id, strconv.FormatFloat(value, 'f', 6, 64), text)
	return nil
}

func (h *host) sound(name string) (*audio.HarmonicSound, int, error) {
	switch name {
	case "A":
		return h.synth.SoundA(), 0, nil
	case "B":
		return h.synth.SoundB(), 1, nil
	}
	return nil, 0, fmt.Errorf("unknown sound %q", name)
}

// sound reset|randomize <A|B>, sound copy <from> <to>
func (h *host) handleSound(command []string) error {
	if err := expectArgs(command, 2); err != nil {
		return err
	}
	sound, _, err := h.sound(command[2])
	if err != nil {
		return err
	}
	switch command[1] {
	case "reset":
		h.synth.Edit(sound.Reset)
	case "randomize":
		h.synth.Edit(func() {
			sound.Randomize(h.random)
		})
	case "copy":
		if err := expectArgs(command, 3); err != nil {
			return err
		}
		target, _, err := h.sound(command[3])
		if err != nil {
			return err
		}
		h.synth.Edit(func() {
			sound.CopyTo(target)
		})
	default:
		return fmt.Errorf("unknown sound command %q", command[1])
	}
	return nil
}

// preset list, preset load|save <name>
func (h *host) handlePreset(command []string) error {
	if err := expectArgs(command, 1); err != nil {
		return err
	}
	switch command[1] {
	case "list":
		names, err := h.presets.List()
		if err != nil {
			return err
		}
		h.reply(append([]string{"presets"}, names...)...)
		return nil
	case "load":
		if err := expectArgs(command, 2); err != nil {
			return err
		}
		return h.presets.ApplyTo(command[2], h.synth)
	case "save":
		if err := expectArgs(command, 2); err != nil {
			return err
		}
		return h.presets.Save(command[2], h.synth)
	}
	return fmt.Errorf("unknown preset command %q", command[1])
}

// tables load|save <A|B> <name>
func (h *host) handleTables(command []string) error {
	if err := expectArgs(command, 3); err != nil {
		return err
	}
	sound, slot, err := h.sound(command[2])
	if err != nil {
		return err
	}
	if strings.ContainsAny(command[3], `/\`) {
		return fmt.Errorf("invalid table name %q", command[3])
	}
	path := filepath.Join(h.tableDir, command[3]+".wt")
	switch command[1] {
	case "load":
		set, err := audio.LoadTableSet(path)
		if err != nil {
			return err
		}
		return h.synth.InstallTables(slot, set)
	case "save":
		var harmonics []audio.Harmonic
		h.synth.Edit(func() {
			harmonics = sound.Harmonics()
		})
		ch := h.synth.RequestTableRegeneration(harmonics)
		go func() {
			select {
			case set := <-ch:
				if set == nil {
					return
				}
				if err := set.Save(path); err != nil {
					log.Printf("failed to save %s: %v\n", path, err)
					return
				}
				h.reply("saved", path)
			case <-h.ctx.Done():
			}
		}()
		return nil
	}
	return fmt.Errorf("unknown tables command %q", command[1])
}

// arp on|off, arp mode|octaves <unipolar>, arp shuffle <impact>
func (h *host) handleArpeggio(command []string) error {
	if err := expectArgs(command, 1); err != nil {
		return err
	}
	switch command[1] {
	case "on":
		h.setArpeggio(true)
		return nil
	case "off":
		h.setArpeggio(false)
		return nil
	}
	if err := expectArgs(command, 2); err != nil {
		return err
	}
	value, err := strconv.ParseFloat(command[2], 64)
	if err != nil {
		return err
	}
	var text string
	switch command[1] {
	case "mode":
		h.player.Edit(func() {
			h.player.Arpeggio.Mode.SetUnipolar(value)
			text = h.player.Arpeggio.Mode.String()
		})
	case "octaves":
		h.player.Edit(func() {
			h.player.Arpeggio.Octaves.SetUnipolar(value)
			text = h.player.Arpeggio.Octaves.String()
		})
	case "shuffle":
		h.player.Edit(func() {
			if value <= 0 {
				h.player.Fragmentation.Groove = sequencing.GrooveNone{}
				text = "none"
				return
			}
			groove := sequencing.NewGrooveShuffle(value)
			h.player.Fragmentation.Groove = groove
			text = groove.Impact.String()
		})
	default:
		return fmt.Errorf("unknown arp command %q", command[1])
	}
	h.reply("arp", command[1], text)
	return nil
}
