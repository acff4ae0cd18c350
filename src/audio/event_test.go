package audio

import (
	"fmt"
	"testing"
)

type fragmentLog struct {
	entries []string
}

func (l *fragmentLog) render(from, to int) {
	l.entries = append(l.entries, fmt.Sprintf("render %d-%d", from, to))
}

func (l *fragmentLog) fire(e ScheduledEvent[string], frame int) {
	l.entries = append(l.entries, fmt.Sprintf("fire %s@%d", e.Payload, frame))
}

func expectEntries(t *testing.T, actual []string, expected ...string) {
	t.Helper()
	if len(actual) != len(expected) {
		t.Fatalf("expected %v, but got: %v", expected, actual)
	}
	for i := range expected {
		if actual[i] != expected[i] {
			t.Fatalf("expected %v, but got: %v", expected, actual)
		}
	}
}

// 1024 Hz keeps every frame time exact
const testEventRate = 1024.0

func at(frame float64) float64 {
	return 2.0 + frame/testEventRate
}

func TestEventReceiverFragments(t *testing.T) {
	r := NewEventReceiver[string](testEventRate, 16)
	r.Enqueue(ScheduledEvent[string]{Time: at(50), Payload: "c"})
	r.Enqueue(ScheduledEvent[string]{Time: at(10), Payload: "a"})
	r.Enqueue(ScheduledEvent[string]{Time: at(10), Payload: "b"})
	r.Enqueue(ScheduledEvent[string]{Time: at(200), Payload: "next"})
	l := &fragmentLog{}
	r.Fragment(at(0), 128, l.render, l.fire)
	expectEntries(t, l.entries,
		"render 0-10",
		"fire a@10",
		"fire b@10",
		"render 10-50",
		"fire c@50",
		"render 50-128",
	)
	expectEqual(t, r.Len(), 1)

	l = &fragmentLog{}
	r.Fragment(at(128), 128, l.render, l.fire)
	expectEntries(t, l.entries, "render 0-72", "fire next@72", "render 72-128")
	expectEqual(t, r.Len(), 0)
}

func TestEventReceiverBoundaries(t *testing.T) {
	r := NewEventReceiver[string](testEventRate, 16)
	r.Enqueue(ScheduledEvent[string]{Time: at(0), Payload: "first"})
	r.Enqueue(ScheduledEvent[string]{Time: at(127), Payload: "last"})
	r.Enqueue(ScheduledEvent[string]{Time: at(128), Payload: "later"})
	l := &fragmentLog{}
	r.Fragment(at(0), 128, l.render, l.fire)
	expectEntries(t, l.entries, "fire first@0", "render 0-127", "fire last@127", "render 127-128")
	expectEqual(t, r.Len(), 1)
}

func TestEventReceiverDropsLateEvents(t *testing.T) {
	r := NewEventReceiver[string](testEventRate, 16)
	r.Enqueue(ScheduledEvent[string]{Time: at(-1), Payload: "late"})
	r.Enqueue(ScheduledEvent[string]{Time: at(3), Payload: "ok"})
	l := &fragmentLog{}
	r.Fragment(at(0), 128, l.render, l.fire)
	expectEntries(t, l.entries, "render 0-3", "fire ok@3", "render 3-128")
}

func TestEventReceiverCapacity(t *testing.T) {
	r := NewEventReceiver[string](testEventRate, 2)
	expectEqual(t, r.Enqueue(ScheduledEvent[string]{Time: 1}), true)
	expectEqual(t, r.Enqueue(ScheduledEvent[string]{Time: 0}), true)
	expectEqual(t, r.Enqueue(ScheduledEvent[string]{Time: 2}), false)
	r.Clear()
	expectEqual(t, r.Len(), 0)
}
