package events

import (
	"context"
	"sync"
	"testing"
)

// recordingSink captures emitted events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) seen() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestNewStampsTimestamp(t *testing.T) {
	ev := New(TypeChallengeCreated, map[string]interface{}{"challenge_id": 7})
	if ev.Type != TypeChallengeCreated {
		t.Errorf("Type %s, want %s", ev.Type, TypeChallengeCreated)
	}
	if ev.At.IsZero() {
		t.Error("Event timestamp not set")
	}
	if ev.Payload["challenge_id"] != 7 {
		t.Errorf("Payload lost: %v", ev.Payload)
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	multi := NewMultiSink(a, b)

	multi.Emit(context.Background(), New(TypeMatchWon, map[string]interface{}{"winner_id": 3}))
	multi.Emit(context.Background(), New(TypeChallengeForfeited, nil))

	for name, sink := range map[string]*recordingSink{"first": a, "second": b} {
		got := sink.seen()
		if len(got) != 2 {
			t.Fatalf("%s sink saw %d events, want 2", name, len(got))
		}
		if got[0].Type != TypeMatchWon || got[1].Type != TypeChallengeForfeited {
			t.Errorf("%s sink saw types %s, %s", name, got[0].Type, got[1].Type)
		}
	}
}

func TestMultiSinkWithNoTargets(t *testing.T) {
	// An empty fan-out must still be safe to call.
	NewMultiSink().Emit(context.Background(), New(TypeChallengeProposed, nil))
}

func TestLogSinkHandlesUnmarshalablePayload(t *testing.T) {
	// Channels cannot be marshaled; the sink must not panic.
	NewLogSink().Emit(context.Background(), New(TypeMatchCompleted, map[string]interface{}{
		"bad": make(chan int),
	}))
}
