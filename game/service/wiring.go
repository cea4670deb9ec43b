package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/questions"
)

// Wiring assembles the collaborators of every session engine. The zero
// value builds engines with the built-in question bank, a crypto die and
// no animation or event output.
type Wiring struct {
	Questions *questions.Bank
	Mode      questions.Mode
	NewDie    func() engine.Die
	Animator  func(sessionID string) engine.Animator
	Sink      func(sessionID string, config *engine.GameConfig) engine.EventSink
	Logger    zerolog.Logger
}

// NewSession builds a session whose deck resumes at cursor
func (w *Wiring) NewSession(id string, config *engine.GameConfig, cursor int) (*Session, error) {
	if w == nil {
		w = &Wiring{}
	}
	bank := w.Questions
	if bank == nil {
		bank = questions.Fallback()
	}
	deck := questions.NewDeck(bank, w.Mode, cursor)

	opts := []engine.Option{
		engine.WithQuestions(deck),
		engine.WithLogger(w.Logger.With().Str("session", id).Logger()),
	}
	if w.NewDie != nil {
		opts = append(opts, engine.WithDie(w.NewDie()))
	}
	if w.Animator != nil {
		opts = append(opts, engine.WithAnimator(w.Animator(id)))
	}
	if w.Sink != nil {
		opts = append(opts, engine.WithSink(w.Sink(id, config)))
	}

	eng, err := engine.New(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	return &Session{
		ID:             id,
		Engine:         eng,
		Config:         eng.GetConfig(),
		Deck:           deck,
		CreatedAt:      now,
		LastAccessedAt: now,
	}, nil
}
