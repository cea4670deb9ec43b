package engine

import (
	"context"
	"time"
)

// EventKind classifies an outcome event
type EventKind string

const (
	EventTurnStart       EventKind = "turn_start"
	EventQuestion        EventKind = "question"
	EventMissingQuestion EventKind = "missing_question"
	EventAnswer          EventKind = "answer"
	EventTimeout         EventKind = "timeout"
	EventEnterTrack      EventKind = "enter_track"
	EventCombo           EventKind = "combo"
	EventRoll            EventKind = "roll"
	EventCheckpoint      EventKind = "checkpoint"
	EventTileEffect      EventKind = "tile_effect"
	EventSlide           EventKind = "slide"
	EventSwap            EventKind = "swap"
	EventDecay           EventKind = "decay"
	EventTurnSkip        EventKind = "turn_skip"
	EventVictory         EventKind = "victory"
)

// Event is one entry of the outcome log
type Event struct {
	ID        string         `json:"id"`
	Kind      EventKind      `json:"kind"`
	TeamID    int            `json:"team_id"`
	Turn      int            `json:"turn"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// QuestionSource hands out the question for a turn. Returning nil or an
// error means no question is available.
type QuestionSource interface {
	NextQuestion(ctx context.Context, stage int) (*Question, error)
}

// Animator is told about every single-tile step. It may block until the
// step is shown; the engine waits for it before taking the next step.
type Animator interface {
	AnimateStep(ctx context.Context, teamID, from, to int) error
}

// EventSink receives every outcome event as it happens
type EventSink interface {
	Emit(event Event)
}

// QuestionSourceFunc adapts a function to QuestionSource
type QuestionSourceFunc func(ctx context.Context, stage int) (*Question, error)

// NextQuestion calls f
func (f QuestionSourceFunc) NextQuestion(ctx context.Context, stage int) (*Question, error) {
	return f(ctx, stage)
}

// AnimatorFunc adapts a function to Animator
type AnimatorFunc func(ctx context.Context, teamID, from, to int) error

// AnimateStep calls f
func (f AnimatorFunc) AnimateStep(ctx context.Context, teamID, from, to int) error {
	return f(ctx, teamID, from, to)
}

// SinkFunc adapts a function to EventSink
type SinkFunc func(event Event)

// Emit calls f
func (f SinkFunc) Emit(event Event) {
	f(event)
}

// NoQuestions is the stub source used when none is configured
type NoQuestions struct{}

func (NoQuestions) NextQuestion(context.Context, int) (*Question, error) { return nil, nil }

// NopAnimator completes every step immediately
type NopAnimator struct{}

func (NopAnimator) AnimateStep(context.Context, int, int, int) error { return nil }

// NopSink drops every event
type NopSink struct{}

func (NopSink) Emit(Event) {}

// MultiSink fans one event out to several sinks in order
type MultiSink []EventSink

// Emit forwards the event to every sink
func (m MultiSink) Emit(event Event) {
	for _, s := range m {
		s.Emit(event)
	}
}
