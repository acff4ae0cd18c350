package audio

import (
	"context"
	"log"
	"sync"
	"time"
)

// ----- Pad Worker ----- //

type padRequest struct {
	harmonics []Harmonic
	results   []chan *TableSet
}

// PadWorker runs table generation off the render goroutine. While a generation
// is in flight new requests are chained: at most one request waits, and later
// requests merge into it with their newer harmonics.
type PadWorker struct {
	ctx      context.Context
	pad      *Pad
	mu       sync.Mutex
	busy     bool
	waiting  *padRequest
	inFlight sync.WaitGroup
}

// NewPadWorker ...
func NewPadWorker(ctx context.Context, pad *Pad) *PadWorker {
	return &PadWorker{ctx: ctx, pad: pad}
}

// Update requests a table set for harmonics. The channel receives exactly one
// value, nil if generation failed or was cancelled.
func (w *PadWorker) Update(harmonics []Harmonic) <-chan *TableSet {
	result := make(chan *TableSet, 1)
	snapshot := append([]Harmonic(nil), harmonics...)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		if w.waiting == nil {
			w.waiting = &padRequest{}
		}
		w.waiting.harmonics = snapshot
		w.waiting.results = append(w.waiting.results, result)
		return result
	}
	w.busy = true
	w.inFlight.Add(1)
	go w.run(&padRequest{harmonics: snapshot, results: []chan *TableSet{result}})
	return result
}

// Wait blocks until no generation is running or waiting.
func (w *PadWorker) Wait() {
	w.inFlight.Wait()
}

func (w *PadWorker) run(req *padRequest) {
	defer w.inFlight.Done()
	for req != nil {
		start := time.Now()
		set, err := w.pad.Generate(w.ctx, req.harmonics)
		if err != nil {
			log.Printf("failed to generate tables: %v\n", err)
			set = nil
		} else {
			log.Printf("tables computed in %v\n", time.Since(start))
		}
		for _, ch := range req.results {
			ch <- set
		}
		w.mu.Lock()
		req = w.waiting
		w.waiting = nil
		if req == nil {
			w.busy = false
		}
		w.mu.Unlock()
	}
}
