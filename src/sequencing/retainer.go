package sequencing

import (
	"math"
	"sort"
)

// Retained is an event waiting for its end time.
type Retained[T any] struct {
	End   float64
	Event T
}

// EventRetainer keeps started events until their end time has passed.
type EventRetainer[T any] struct {
	events    []Retained[T]
	completed []Retained[T]
}

// Push ...
func (r *EventRetainer[T]) Push(event T, endTime float64) {
	r.events = append(r.events, Retained[T]{End: endTime, Event: event})
}

// Completed removes and returns the events ending before time, earliest first.
// The result is valid until the next call.
func (r *EventRetainer[T]) Completed(time float64) []Retained[T] {
	r.completed = r.completed[:0]
	kept := r.events[:0]
	for _, e := range r.events {
		if e.End < time {
			r.completed = append(r.completed, e)
		} else {
			kept = append(kept, e)
		}
	}
	r.events = kept
	sort.SliceStable(r.completed, func(i, j int) bool {
		return r.completed[i].End < r.completed[j].End
	})
	return r.completed
}

// Len ...
func (r *EventRetainer[T]) Len() int {
	return len(r.events)
}

// Flush removes and returns every event, earliest first.
func (r *EventRetainer[T]) Flush() []Retained[T] {
	return r.Completed(math.Inf(1))
}
