package sequencing

// MIDI commands (status byte without channel).
const (
	CmdNoteOff    = 0x80
	CmdNoteOn     = 0x90
	CmdController = 0xB0
	CmdPitchBend  = 0xE0
)

// MidiHandler receives decoded channel messages.
type MidiHandler interface {
	NoteOn(note int, velocity float64)
	NoteOff(note int)
	PitchWheel(bipolar float64)
	Controller(id int, unipolar float64)
}

// MidiData is one raw MIDI message.
type MidiData []byte

// NoteOnData encodes a note on. velocity is 0-127.
func NoteOnData(channel, note, velocity int) MidiData {
	return MidiData{byte(channel&0x0F | CmdNoteOn), byte(note & 0x7F), byte(velocity & 0x7F)}
}

// NoteOffData ...
func NoteOffData(channel, note int) MidiData {
	return MidiData{byte(channel&0x0F | CmdNoteOff), byte(note & 0x7F), 0}
}

// Command ...
func (d MidiData) Command() int {
	if len(d) == 0 {
		return 0
	}
	return int(d[0] & 0xF0)
}

// Channel ...
func (d MidiData) Channel() int {
	if len(d) == 0 {
		return 0
	}
	return int(d[0] & 0x0F)
}

// Param1 ...
func (d MidiData) Param1() int {
	if len(d) > 1 {
		return int(d[1])
	}
	return 0
}

// Param2 ...
func (d MidiData) Param2() int {
	if len(d) > 2 {
		return int(d[2])
	}
	return 0
}

// IsNoteOn is false for a note on with zero velocity, which is a note off.
func (d MidiData) IsNoteOn() bool {
	return d.Command() == CmdNoteOn && d.Param2() > 0
}

// IsNoteOff ...
func (d MidiData) IsNoteOff() bool {
	return d.Command() == CmdNoteOff || d.Command() == CmdNoteOn && d.Param2() == 0
}

// Note ...
func (d MidiData) Note() int {
	return d.Param1() & 0x7F
}

// Velocity is in [0,1].
func (d MidiData) Velocity() float64 {
	return float64(d.Param2()&0x7F) / 127.0
}

// IsPitchWheel ...
func (d MidiData) IsPitchWheel() bool {
	return d.Command() == CmdPitchBend
}

// PitchBend is in [-1,1], 0 at the center (8192).
func (d MidiData) PitchBend() float64 {
	value := d.Param1()&0x7F | (d.Param2()&0x7F)<<7
	if value <= 8192 {
		return float64(value)/8192.0 - 1.0
	}
	return float64(value-8191) / 8192.0
}

// IsController ...
func (d MidiData) IsController() bool {
	return d.Command() == CmdController
}

// Value is the controller value in [0,1].
func (d MidiData) Value() float64 {
	return float64(d.Param2()&0x7F) / 127.0
}

// Dispatch decodes d and calls h. It returns false for messages h does not
// handle.
func (d MidiData) Dispatch(h MidiHandler) bool {
	switch {
	case d.IsNoteOn():
		h.NoteOn(d.Note(), d.Velocity())
	case d.IsNoteOff():
		h.NoteOff(d.Note())
	case d.IsPitchWheel():
		h.PitchWheel(d.PitchBend())
	case d.IsController():
		h.Controller(d.Param1(), d.Value())
	default:
		return false
	}
	return true
}
