package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/jinjor/padsynth/src/audio"
)

// Config holds the runtime configuration of the binaries, loaded from
// environment variables and overridden by flags.
type Config struct {
	// Engine
	SampleRate      float64
	TableExponent   int
	LowestFrequency float64
	MaxPoly         int

	// Host
	BlockSize  int    // device buffer in frames
	SocketPath string // IPC socket
	MIDI       int    // MIDI IN port, negative to disable
	Bpm        float64
	Arpeggio   bool // route notes through the arpeggio
	PresetDir  string
	TableDir   string
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	o := audio.DefaultOptions()
	return Config{
		SampleRate:      envFloat("PADSYNTH_SAMPLE_RATE", o.SampleRate),
		TableExponent:   envInt("PADSYNTH_TABLE_EXPONENT", o.TableExponent),
		LowestFrequency: envFloat("PADSYNTH_LOWEST_FREQUENCY", o.LowestFrequency),
		MaxPoly:         envInt("PADSYNTH_MAX_POLY", o.MaxPoly),

		BlockSize:  envInt("PADSYNTH_BLOCK_SIZE", 1024),
		SocketPath: envStr("PADSYNTH_SOCKET", "/tmp/padsynth.sock"),
		MIDI:       envInt("PADSYNTH_MIDI", -1),
		Bpm:        envFloat("PADSYNTH_BPM", 120),
		Arpeggio:   envBool("PADSYNTH_ARPEGGIO", false),
		PresetDir:  envStr("PADSYNTH_PRESET_DIR", "presets"),
		TableDir:   envStr("PADSYNTH_TABLE_DIR", "tables"),
	}
}

// RegisterFlags binds every field to a flag of fs, using the current values as
// defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.SampleRate, "sample-rate", c.SampleRate, "sample rate in Hz")
	fs.IntVar(&c.TableExponent, "table-exponent", c.TableExponent, "table size as a power of two")
	fs.Float64Var(&c.LowestFrequency, "lowest", c.LowestFrequency, "lowest table frequency in Hz")
	fs.IntVar(&c.MaxPoly, "poly", c.MaxPoly, "maximum number of voices")
	fs.IntVar(&c.BlockSize, "block-size", c.BlockSize, "device buffer in frames")
	fs.StringVar(&c.SocketPath, "socket", c.SocketPath, "IPC socket path")
	fs.IntVar(&c.MIDI, "midi", c.MIDI, "MIDI IN port (-1 to disable)")
	fs.Float64Var(&c.Bpm, "bpm", c.Bpm, "tempo of the arpeggio")
	fs.BoolVar(&c.Arpeggio, "arp", c.Arpeggio, "route notes through the arpeggio")
	fs.StringVar(&c.PresetDir, "presets", c.PresetDir, "preset directory")
	fs.StringVar(&c.TableDir, "tables", c.TableDir, "table directory")
}

// Options ...
func (c Config) Options() audio.Options {
	return audio.Options{
		SampleRate:      c.SampleRate,
		TableExponent:   c.TableExponent,
		LowestFrequency: c.LowestFrequency,
		MaxPoly:         c.MaxPoly,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
