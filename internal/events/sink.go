package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/cueladder/backend/internal/metrics"
)

// Event types announced by the engine. Consumers must tolerate duplicates;
// delivery is best-effort.
const (
	TypeChallengeCreated   = "challengeCreated"
	TypeChallengeProposed  = "challengeProposed"
	TypeChallengeConfirmed = "challengeConfirmed"
	TypeMatchCompleted     = "matchCompleted"
	TypeChallengeForfeited = "challengeForfeited"
	TypeMatchWon           = "matchWon"
)

// Event is one outbound notification.
type Event struct {
	Type    string                 `json:"type"`
	At      time.Time              `json:"at"`
	Payload map[string]interface{} `json:"payload"`
}

// Sink receives events emitted by the engine. Implementations must not
// block the caller on downstream failures; they log and move on.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// LogSink writes every event to the process log. Always wired first so an
// event trail exists even with Redis or the database down.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Emit(ctx context.Context, ev Event) {
	b, err := json.Marshal(ev.Payload)
	if err != nil {
		log.Printf("[EVENTS] %s (payload marshal failed: %v)", ev.Type, err)
		return
	}
	log.Printf("[EVENTS] %s %s", ev.Type, string(b))
}

// MultiSink fans an event out to every configured sink.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Emit(ctx context.Context, ev Event) {
	metrics.RecordEventEmitted(ev.Type)
	for _, sink := range s.sinks {
		sink.Emit(ctx, ev)
	}
}

// New builds an event with the timestamp already set.
func New(eventType string, payload map[string]interface{}) Event {
	return Event{Type: eventType, At: time.Now().UTC(), Payload: payload}
}
