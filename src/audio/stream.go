package audio

import (
	"github.com/gopxl/beep"
)

// ----- Streamer ----- //

// Streamer renders a Processor as an endless beep.Streamer.
type Streamer struct {
	processor *Processor
	left      []float32
	right     []float32
	cursor    int
}

var _ beep.Streamer = (*Streamer)(nil)

// NewStreamer ...
func NewStreamer(processor *Processor) *Streamer {
	return &Streamer{
		processor: processor,
		left:      make([]float32, RenderQuantum),
		right:     make([]float32, RenderQuantum),
		cursor:    RenderQuantum,
	}
}

// Format is the beep format of the rendered samples at 16 bit.
func (s *Streamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.processor.SampleRate()),
		NumChannels: channelNum,
		Precision:   bitDepthInBytes,
	}
}

// Stream ...
func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.cursor == RenderQuantum {
			s.processor.RenderBlock(s.left, s.right)
			s.cursor = 0
		}
		samples[i][0] = float64(s.left[s.cursor])
		samples[i][1] = float64(s.right[s.cursor])
		s.cursor++
	}
	return len(samples), true
}

// Err ...
func (s *Streamer) Err() error {
	return nil
}
