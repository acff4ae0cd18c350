package config

import (
	"flag"
	"os"
	"testing"
)

var envVars = []string{
	"PADSYNTH_SAMPLE_RATE", "PADSYNTH_TABLE_EXPONENT", "PADSYNTH_LOWEST_FREQUENCY",
	"PADSYNTH_MAX_POLY", "PADSYNTH_BLOCK_SIZE", "PADSYNTH_SOCKET", "PADSYNTH_MIDI",
	"PADSYNTH_BPM", "PADSYNTH_ARPEGGIO", "PADSYNTH_PRESET_DIR", "PADSYNTH_TABLE_DIR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %v, want 48000", cfg.SampleRate)
	}
	if cfg.TableExponent != 16 {
		t.Errorf("TableExponent = %d, want 16", cfg.TableExponent)
	}
	if cfg.LowestFrequency != 20 {
		t.Errorf("LowestFrequency = %v, want 20", cfg.LowestFrequency)
	}
	if cfg.MaxPoly != 32 {
		t.Errorf("MaxPoly = %d, want 32", cfg.MaxPoly)
	}
	if cfg.BlockSize != 1024 {
		t.Errorf("BlockSize = %d, want 1024", cfg.BlockSize)
	}
	if cfg.SocketPath != "/tmp/padsynth.sock" {
		t.Errorf("SocketPath = %q, want default", cfg.SocketPath)
	}
	if cfg.MIDI != -1 {
		t.Errorf("MIDI = %d, want -1", cfg.MIDI)
	}
	if cfg.Bpm != 120 {
		t.Errorf("Bpm = %v, want 120", cfg.Bpm)
	}
	if cfg.Arpeggio {
		t.Error("Arpeggio = true, want false")
	}
	if cfg.PresetDir != "presets" || cfg.TableDir != "tables" {
		t.Errorf("dirs = %q %q, want defaults", cfg.PresetDir, cfg.TableDir)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PADSYNTH_SAMPLE_RATE", "44100")
	t.Setenv("PADSYNTH_TABLE_EXPONENT", "12")
	t.Setenv("PADSYNTH_MIDI", "1")
	t.Setenv("PADSYNTH_BPM", "90.5")
	t.Setenv("PADSYNTH_ARPEGGIO", "yes")
	t.Setenv("PADSYNTH_SOCKET", "/run/synth.sock")

	cfg := Load()
	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %v, want 44100", cfg.SampleRate)
	}
	if cfg.TableExponent != 12 {
		t.Errorf("TableExponent = %d, want 12", cfg.TableExponent)
	}
	if cfg.MIDI != 1 {
		t.Errorf("MIDI = %d, want 1", cfg.MIDI)
	}
	if cfg.Bpm != 90.5 {
		t.Errorf("Bpm = %v, want 90.5", cfg.Bpm)
	}
	if !cfg.Arpeggio {
		t.Error("Arpeggio = false, want true")
	}
	if cfg.SocketPath != "/run/synth.sock" {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}

	o := cfg.Options()
	if o.SampleRate != 44100 || o.TableExponent != 12 || o.MaxPoly != 32 {
		t.Errorf("unexpected options: %+v", o)
	}
}

func TestLoadInvalidFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PADSYNTH_MAX_POLY", "many")
	t.Setenv("PADSYNTH_LOWEST_FREQUENCY", "low")
	t.Setenv("PADSYNTH_ARPEGGIO", "maybe")
	cfg := Load()
	if cfg.MaxPoly != 32 {
		t.Errorf("MaxPoly = %d, want 32", cfg.MaxPoly)
	}
	if cfg.LowestFrequency != 20 {
		t.Errorf("LowestFrequency = %v, want 20", cfg.LowestFrequency)
	}
	if cfg.Arpeggio {
		t.Error("Arpeggio = true, want false")
	}
}

func TestRegisterFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("PADSYNTH_BPM", "100")
	cfg := Load()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse([]string{"-poly", "8", "-midi", "2", "-arp"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxPoly != 8 {
		t.Errorf("MaxPoly = %d, want 8", cfg.MaxPoly)
	}
	if cfg.MIDI != 2 {
		t.Errorf("MIDI = %d, want 2", cfg.MIDI)
	}
	if !cfg.Arpeggio {
		t.Error("Arpeggio = false, want true")
	}
	// env value survives as the flag default
	if cfg.Bpm != 100 {
		t.Errorf("Bpm = %v, want 100", cfg.Bpm)
	}
}
