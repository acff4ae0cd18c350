package audio

import (
	"log"
)

// ----- Event Receiver ----- //

// ScheduledEvent is a payload due at an absolute time in seconds.
type ScheduledEvent[T any] struct {
	Time    float64
	Payload T
}

// EventReceiver splits render blocks at the exact frames of pending events.
// It lives on the render goroutine and never allocates after construction.
type EventReceiver[T any] struct {
	sampleRate float64
	events     []ScheduledEvent[T]
}

// NewEventReceiver ...
func NewEventReceiver[T any](sampleRate float64, capacity int) *EventReceiver[T] {
	return &EventReceiver[T]{
		sampleRate: sampleRate,
		events:     make([]ScheduledEvent[T], 0, capacity),
	}
}

// Enqueue inserts the event after every pending event with the same or an
// earlier time. It returns false when the queue is full.
func (r *EventReceiver[T]) Enqueue(e ScheduledEvent[T]) bool {
	if len(r.events) == cap(r.events) {
		return false
	}
	i := len(r.events)
	r.events = r.events[:i+1]
	for ; i > 0 && r.events[i-1].Time > e.Time; i-- {
		r.events[i] = r.events[i-1]
	}
	r.events[i] = e
	return true
}

// Len ...
func (r *EventReceiver[T]) Len() int {
	return len(r.events)
}

// Clear drops every pending event.
func (r *EventReceiver[T]) Clear() {
	r.events = r.events[:0]
}

func (r *EventReceiver[T]) shift() {
	n := copy(r.events, r.events[1:])
	r.events = r.events[:n]
}

// Fragment renders a block that starts at currentTime. Every event falling into
// the block fires at its frame, after the frames before it have been rendered.
// Events earlier than the block are dropped.
func (r *EventReceiver[T]) Fragment(currentTime float64, blockSize int, render func(from, to int), fire func(e ScheduledEvent[T], frame int)) {
	index := 0
	for len(r.events) > 0 {
		e := r.events[0]
		frame := int((e.Time - currentTime) * r.sampleRate)
		if frame < 0 {
			log.Printf("[WARN] dropped late event: %.6f < %.6f\n", e.Time, currentTime)
			r.shift()
			continue
		}
		if frame >= blockSize {
			break
		}
		if frame > index {
			render(index, frame)
			index = frame
		}
		fire(e, frame)
		r.shift()
	}
	if index < blockSize {
		render(index, blockSize)
	}
}
