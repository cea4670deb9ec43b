package questions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
)

// QuestionsPerStage is how many consecutive IDs share a stage by default
const QuestionsPerStage = 10

var (
	// ErrEmptyBank is returned when a deck has nothing to deal
	ErrEmptyBank = errors.New("question bank is empty")
	// ErrInvalidQuestion wraps every question validation failure
	ErrInvalidQuestion = errors.New("invalid question")
)

var optionLabel = regexp.MustCompile(`^[A-Da-d][.)]\s*`)

// rawQuestion is the on-disk question format
type rawQuestion struct {
	ID       int      `json:"id"`
	Stage    int      `json:"stage,omitempty"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer,omitempty"`
	Correct  *int     `json:"correct,omitempty"`
}

type bankFile struct {
	Questions []rawQuestion `json:"questions"`
}

// Bank is an immutable, ID-ordered set of questions
type Bank struct {
	questions []engine.Question
}

// NewBank creates a bank from already parsed questions
func NewBank(qs []engine.Question) *Bank {
	b := &Bank{questions: append([]engine.Question(nil), qs...)}
	sort.SliceStable(b.questions, func(i, j int) bool {
		return b.questions[i].ID < b.questions[j].ID
	})
	return b
}

// LoadBank reads a question bank from a JSON file
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	return ParseBank(data)
}

// ParseBank parses the JSON question bank format
func ParseBank(data []byte) (*Bank, error) {
	var file bankFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}

	qs := make([]engine.Question, 0, len(file.Questions))
	for _, raw := range file.Questions {
		q, err := convert(raw)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return NewBank(qs), nil
}

func convert(raw rawQuestion) (engine.Question, error) {
	if strings.TrimSpace(raw.Question) == "" {
		return engine.Question{}, fmt.Errorf("%w: question %d has no text", ErrInvalidQuestion, raw.ID)
	}
	if len(raw.Options) < 2 {
		return engine.Question{}, fmt.Errorf("%w: question %d needs at least 2 options, got %d",
			ErrInvalidQuestion, raw.ID, len(raw.Options))
	}

	options := make([]string, len(raw.Options))
	for i, opt := range raw.Options {
		options[i] = optionLabel.ReplaceAllString(strings.TrimSpace(opt), "")
	}

	correct, err := correctIndex(raw)
	if err != nil {
		return engine.Question{}, err
	}
	if correct >= len(options) {
		return engine.Question{}, fmt.Errorf("%w: question %d answer %d out of range", ErrInvalidQuestion, raw.ID, correct)
	}

	stage := raw.Stage
	if stage <= 0 {
		stage = StageForID(raw.ID)
	}

	return engine.Question{
		ID:           raw.ID,
		Stage:        stage,
		Text:         strings.TrimSpace(raw.Question),
		Options:      options,
		CorrectIndex: correct,
	}, nil
}

func correctIndex(raw rawQuestion) (int, error) {
	if raw.Correct != nil {
		if *raw.Correct < 0 {
			return 0, fmt.Errorf("%w: question %d has negative answer index", ErrInvalidQuestion, raw.ID)
		}
		return *raw.Correct, nil
	}
	letter := strings.ToUpper(strings.TrimSpace(raw.Answer))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return 0, fmt.Errorf("%w: question %d has answer %q, want a letter", ErrInvalidQuestion, raw.ID, raw.Answer)
	}
	return int(letter[0] - 'A'), nil
}

// StageForID returns the default stage of a question ID
func StageForID(id int) int {
	if id <= 0 {
		return 1
	}
	return (id + QuestionsPerStage - 1) / QuestionsPerStage
}

// Len returns the number of questions
func (b *Bank) Len() int {
	return len(b.questions)
}

// At returns a copy of the question at position i
func (b *Bank) At(i int) engine.Question {
	q := b.questions[i]
	q.Options = append([]string(nil), q.Options...)
	return q
}

// Stages returns how many questions each stage holds
func (b *Bank) Stages() map[int]int {
	out := make(map[int]int)
	for _, q := range b.questions {
		out[q.Stage]++
	}
	return out
}
