package questions

import (
	"context"
	"fmt"
	"sync"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
)

// Mode selects how a deck picks the next question
type Mode string

const (
	// Sequential deals every question in ID order and wraps around
	Sequential Mode = "sequential"
	// ByStage deals the next question of the team's stage
	ByStage Mode = "stage"
)

// ParseMode converts a config string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Sequential:
		return Sequential, nil
	case ByStage:
		return ByStage, nil
	}
	return "", fmt.Errorf("unknown question mode %q", s)
}

// Deck deals questions from a bank for one game
type Deck struct {
	mu     sync.Mutex
	bank   *Bank
	mode   Mode
	cursor int
}

// NewDeck creates a deck positioned at cursor
func NewDeck(bank *Bank, mode Mode, cursor int) *Deck {
	if bank == nil {
		bank = NewBank(nil)
	}
	if mode == "" {
		mode = Sequential
	}
	d := &Deck{bank: bank, mode: mode}
	if bank.Len() > 0 && cursor > 0 {
		d.cursor = cursor % bank.Len()
	}
	return d
}

// NextQuestion deals the next question. It implements engine.QuestionSource.
func (d *Deck) NextQuestion(ctx context.Context, stage int) (*engine.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.bank.Len()
	if n == 0 {
		return nil, ErrEmptyBank
	}

	idx := d.cursor
	if d.mode == ByStage {
		for i := 0; i < n; i++ {
			j := (d.cursor + i) % n
			if d.bank.questions[j].Stage == stage {
				idx = j
				break
			}
		}
	}

	d.cursor = (idx + 1) % n
	q := d.bank.At(idx)
	return &q, nil
}

// Cursor returns the position of the next question to deal
func (d *Deck) Cursor() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// Mode returns the dealing mode
func (d *Deck) Mode() Mode {
	return d.mode
}
