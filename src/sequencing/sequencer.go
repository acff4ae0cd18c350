package sequencing

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jinjor/padsynth/src/param"
)

const (
	// Interval is the period of the tick goroutine.
	Interval = time.Millisecond
	// LookAheadMillis is how far ahead of the clock a window is scheduled.
	LookAheadMillis = 10.0
	// ScheduleMillis is the length of one scheduling window.
	ScheduleMillis = 10.0
	// AdditionalLatencyMillis is added to every computed start time.
	AdditionalLatencyMillis = 10.0
)

// Clock returns the current time in milliseconds.
type Clock func() float64

// StartMillis converts a bar position of the current window into the clock
// time at which it should sound.
type StartMillis func(barPosition float64) float64

// Processor is called once per scheduling window with the bar range [t0, t1).
type Processor func(computeStartMillis StartMillis, t0, t1 float64)

// Handle identifies a registered processor.
type Handle int

type registration struct {
	handle    Handle
	delay     float64
	processor Processor
}

type call struct {
	processor   Processor
	startMillis StartMillis
	t0          float64
	t1          float64
}

// ----- Sequencer ----- //

// Sequencer advances a bar position in fixed windows ahead of a clock and hands
// each window to the registered processors. Its methods are safe for concurrent
// use. Bpm must be changed through SetBpm while the sequencer runs.
type Sequencer struct {
	Bpm *param.Parameter

	clock  Clock
	mu     sync.Mutex
	tickMu sync.Mutex

	absoluteTime     float64
	nextScheduleTime float64
	bpm              float64
	running          bool
	run              int
	cancel           context.CancelFunc
	processors       []registration
	nextHandle       Handle
	calls            []call
}

// NewSequencer creates a stopped sequencer. A nil clock uses the wall clock.
func NewSequencer(clock Clock) *Sequencer {
	if clock == nil {
		start := time.Now()
		clock = func() float64 {
			return float64(time.Since(start)) / float64(time.Millisecond)
		}
	}
	s := &Sequencer{clock: clock, bpm: 120}
	s.Bpm = param.Begin("Bpm").Unit("").Mapping(param.Linear{Min: 30, Max: 300}).
		Print(param.OneFloat).Value(120).Callback(func(p *param.Parameter) {
		// keep the bar position
		bars := s.millisToBars(s.absoluteTime)
		s.bpm = p.Value()
		s.absoluteTime = s.barsToMillis(bars)
	}).Create()
	return s
}

// SetBpm ...
func (s *Sequencer) SetBpm(bpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Bpm.Set(param.Clamp(30, 300, bpm))
}

// Start plays until Pause, Stop or the end of ctx. Starting twice is a no-op.
func (s *Sequencer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.run++
	run := s.run
	s.nextScheduleTime = s.clock() + LookAheadMillis
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		t := time.NewTicker(Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.mu.Lock()
				if s.run == run {
					s.running = false
					s.cancel = nil
				}
				s.mu.Unlock()
				log.Println("sequencer stopped")
				return
			case <-t.C:
				s.Tick()
			}
		}
	}()
}

// Pause stops ticking and keeps the position.
func (s *Sequencer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pause()
}

func (s *Sequencer) pause() {
	if !s.running {
		return
	}
	s.running = false
	s.cancel()
	s.cancel = nil
}

// Stop pauses and rewinds to the first bar.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pause()
	s.absoluteTime = 0
}

// Toggle switches between playing and paused.
func (s *Sequencer) Toggle(ctx context.Context) {
	if s.Running() {
		s.Pause()
	} else {
		s.Start(ctx)
	}
}

// PlayMode starts or stops.
func (s *Sequencer) PlayMode(ctx context.Context, play bool) {
	if play {
		s.Start(ctx)
	} else {
		s.Stop()
	}
}

// Running ...
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick schedules the next window when the clock reached it. Processors are
// called outside of the state lock, one tick at a time.
func (s *Sequencer) Tick() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	if !s.running || s.clock()+LookAheadMillis < s.nextScheduleTime {
		s.mu.Unlock()
		return
	}
	m0 := s.absoluteTime
	m1 := m0 + ScheduleMillis
	offset := s.nextScheduleTime - s.absoluteTime
	bpm := s.bpm
	calls := s.calls[:0]
	for _, r := range s.processors {
		calls = append(calls, call{
			processor:   r.processor,
			startMillis: startMillis(offset, bpm, r.delay),
			t0:          millisToBars(m0+r.delay, bpm),
			t1:          millisToBars(m1+r.delay, bpm),
		})
	}
	s.calls = calls
	s.absoluteTime += ScheduleMillis
	s.nextScheduleTime += ScheduleMillis
	s.mu.Unlock()

	for _, c := range calls {
		c.processor(c.startMillis, c.t0, c.t1)
	}
}

func startMillis(offset, bpm, delay float64) StartMillis {
	return func(barPosition float64) float64 {
		return offset + barsToMillis(barPosition, bpm) + AdditionalLatencyMillis + delay
	}
}

// Offline hands the whole range [0, bars) to every processor at once. Start
// times are relative to the first bar.
func (s *Sequencer) Offline(bars float64) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.mu.Lock()
	bpm := s.bpm
	processors := append([]registration(nil), s.processors...)
	s.mu.Unlock()
	for _, r := range processors {
		delay := r.delay
		r.processor(func(barPosition float64) float64 {
			return barsToMillis(barPosition, bpm) + delay
		}, 0, bars)
	}
}

// AddProcessor registers p. delay in milliseconds shifts both the window and
// the computed start times.
func (s *Sequencer) AddProcessor(p Processor, delay float64) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHandle++
	s.processors = append(s.processors, registration{handle: s.nextHandle, delay: delay, processor: p})
	return s.nextHandle
}

// RemoveProcessor ...
func (s *Sequencer) RemoveProcessor(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.processors {
		if r.handle == h {
			s.processors = append(s.processors[:i], s.processors[i+1:]...)
			return
		}
	}
	log.Printf("processor %d not found\n", h)
}

// Bars is the current position in bars.
func (s *Sequencer) Bars() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.millisToBars(s.absoluteTime)
}

// BarsToMillis ...
func (s *Sequencer) BarsToMillis(bars float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.barsToMillis(bars)
}

// MillisToBars ...
func (s *Sequencer) MillisToBars(millis float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.millisToBars(millis)
}

func (s *Sequencer) barsToMillis(bars float64) float64 {
	return barsToMillis(bars, s.bpm)
}

func (s *Sequencer) millisToBars(millis float64) float64 {
	return millisToBars(millis, s.bpm)
}

// a bar is four beats
func barsToMillis(bars, bpm float64) float64 {
	return bars * 240000.0 / bpm
}

func millisToBars(millis, bpm float64) float64 {
	return millis * bpm / 240000.0
}
