package audio

import (
	"context"
	"io"
	"log"

	"github.com/hajimehoshi/oto"
)

const (
	channelNum      = 2
	bitDepthInBytes = 2
	bytesPerSample  = bitDepthInBytes * channelNum
	fftSize         = 2048 // multiple of RenderQuantum
)

// ----- Audio ----- //

// Audio plays a Processor through oto. Read is the render goroutine.
type Audio struct {
	ctx               context.Context
	otoContext        *oto.Context
	processor         *Processor
	bufferSizeInBytes int

	left   []float32
	right  []float32
	cursor int // next unread frame of left/right

	out       []float64 // mono ring of the last fftSize frames
	pos       int
	snapshots chan []float64
	spares    chan []float64
	fft       *FFT
	fftResult []float64
}

var _ io.Reader = (*Audio)(nil)

// NewAudio opens the output device. bufferFrames is the device buffer size in
// frames.
func NewAudio(processor *Processor, bufferFrames int) (*Audio, error) {
	bufferSizeInBytes := bufferFrames * bytesPerSample
	otoContext, err := oto.NewContext(int(processor.SampleRate()), channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	a, err := newAudio(processor)
	if err != nil {
		otoContext.Close()
		return nil, err
	}
	a.otoContext = otoContext
	a.bufferSizeInBytes = bufferSizeInBytes
	return a, nil
}

func newAudio(processor *Processor) (*Audio, error) {
	fft, err := NewFFT(fftSize)
	if err != nil {
		return nil, err
	}
	a := &Audio{
		ctx:               context.Background(),
		processor:         processor,
		bufferSizeInBytes: 4096,
		left:              make([]float32, RenderQuantum),
		right:             make([]float32, RenderQuantum),
		cursor:            RenderQuantum,
		out:               make([]float64, fftSize),
		snapshots:         make(chan []float64, 1),
		spares:            make(chan []float64, 2),
		fft:               fft,
		fftResult:         make([]float64, fftSize),
	}
	a.spares <- make([]float64, fftSize)
	a.spares <- make([]float64, fftSize)
	return a, nil
}

// Read renders interleaved 16 bit stereo.
func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	frames := len(buf) / bytesPerSample
	for i := 0; i < frames; i++ {
		if a.cursor == RenderQuantum {
			a.processor.RenderBlock(a.left, a.right)
			a.cursor = 0
		}
		l := a.left[a.cursor]
		r := a.right[a.cursor]
		a.cursor++
		writeSample(buf[bytesPerSample*i:], l)
		writeSample(buf[bytesPerSample*i+bitDepthInBytes:], r)
		a.record(float64(l+r) * 0.5)
	}
	return frames * bytesPerSample, nil
}

func (a *Audio) record(value float64) {
	a.out[a.pos] = value
	a.pos++
	if a.pos < fftSize {
		return
	}
	a.pos = 0
	// replace the unread snapshot with the latest one
	select {
	case old := <-a.snapshots:
		a.spares <- old
	default:
	}
	select {
	case snapshot := <-a.spares:
		copy(snapshot, a.out)
		a.snapshots <- snapshot
	default:
	}
}

func writeSample(buf []byte, value float32) {
	const max = 32767
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	b := int16(value * max)
	buf[0] = byte(b)
	buf[1] = byte(b >> 8)
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start plays until ctx is cancelled.
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, a.bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// GetFFT returns the magnitude spectrum of the latest fftSize frames, or nil if
// no new frames were played since the last call.
func (a *Audio) GetFFT(ctx context.Context) []float64 {
	var snapshot []float64
	select {
	case <-ctx.Done():
		return nil
	case snapshot = <-a.snapshots:
	default:
		return nil
	}
	copy(a.fftResult, snapshot)
	a.spares <- snapshot
	Han(a.fftResult)
	a.fft.CalcAbs(a.fftResult)
	for i, value := range a.fftResult {
		a.fftResult[i] = value * 2 / fftSize
	}
	return a.fftResult[:fftSize/2]
}
