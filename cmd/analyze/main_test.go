package main

import (
	"bytes"
	"context"
	mrand "math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/questions"
)

func shortTrack() *engine.GameConfig {
	return &engine.GameConfig{
		Name:   "short",
		Teams:  []engine.TeamConfig{{Name: "Red"}, {Name: "Blue"}},
		Layout: []string{"....E"},
	}
}

func testBank() *questions.Bank {
	return questions.NewBank([]engine.Question{
		{ID: 1, Stage: 1, Text: "2+2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
		{ID: 2, Stage: 1, Text: "Red + blue?", Options: []string{"Purple", "Green"}, CorrectIndex: 0},
	})
}

func testOptions() SimOptions {
	return SimOptions{Games: 20, Accuracy: 1, Seed: 7, MaxTurns: 500, Workers: 4, Mode: questions.Sequential}
}

func newTestRand() *mrand.Rand {
	return mrand.New(mrand.NewPCG(1, 2))
}

func TestAnswererPick(t *testing.T) {
	q := &engine.Question{Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2}

	always := &answerer{rng: newTestRand(), accuracy: 1}
	never := &answerer{rng: newTestRand(), accuracy: 0}
	for range 50 {
		assert.Equal(t, 2, always.pick(q))
		got := never.pick(q)
		assert.NotEqual(t, 2, got)
		assert.GreaterOrEqual(t, got, 0)
		assert.Less(t, got, 4)
	}
}

func TestPlayGame_Finishes(t *testing.T) {
	res, err := PlayGame(context.Background(), shortTrack(), testBank(), 3, testOptions())
	require.NoError(t, err)

	assert.Contains(t, []int{0, 1}, res.Winner)
	assert.Positive(t, res.Turns)
	assert.Equal(t, 1, res.Events[engine.EventVictory])
	assert.Positive(t, res.Events[engine.EventRoll])
	assert.Positive(t, res.Events[engine.EventEnterTrack])
}

func TestPlayGame_StallsWithoutCorrectAnswers(t *testing.T) {
	opts := testOptions()
	opts.Accuracy = 0
	opts.MaxTurns = 30

	res, err := PlayGame(context.Background(), shortTrack(), testBank(), 3, opts)
	require.NoError(t, err)

	assert.Equal(t, -1, res.Winner)
	assert.Zero(t, res.Events[engine.EventRoll])
	assert.Greater(t, res.Turns, opts.MaxTurns)
}

func TestPlayGame_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PlayGame(ctx, shortTrack(), testBank(), 1, testOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulate(t *testing.T) {
	report, err := Simulate(context.Background(), shortTrack(), testBank(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, 20, report.Games)
	assert.Equal(t, 20, report.Finished)
	assert.Zero(t, report.Stalled)
	assert.Equal(t, 20, report.SeatWins[0]+report.SeatWins[1])
	assert.LessOrEqual(t, report.MinTurns, report.MaxTurns)
	assert.GreaterOrEqual(t, report.MedianTurns, float64(report.MinTurns))
	assert.LessOrEqual(t, report.MeanTurns, float64(report.MaxTurns))
	assert.Equal(t, 20, report.Events[engine.EventVictory])
	assert.InDelta(t, 1, report.WinRate(0)+report.WinRate(1), 1e-9)
}

func TestSimulate_Deterministic(t *testing.T) {
	first, err := Simulate(context.Background(), shortTrack(), testBank(), testOptions())
	require.NoError(t, err)

	opts := testOptions()
	opts.Workers = 1
	second, err := Simulate(context.Background(), shortTrack(), testBank(), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second, "the same seed should replay the same races regardless of workers")
}

func TestSimulate_InvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.Games = 0
	_, err := Simulate(context.Background(), shortTrack(), testBank(), opts)
	assert.ErrorContains(t, err, "games must be positive")

	opts = testOptions()
	opts.Accuracy = 1.5
	_, err = Simulate(context.Background(), shortTrack(), testBank(), opts)
	assert.ErrorContains(t, err, "accuracy")
}

func TestAggregate(t *testing.T) {
	results := []GameResult{
		{Winner: 0, Turns: 10, Events: map[engine.EventKind]int{engine.EventRoll: 4}},
		{Winner: 1, Turns: 20, Events: map[engine.EventKind]int{engine.EventRoll: 6}},
		{Winner: 0, Turns: 40, Events: map[engine.EventKind]int{}},
		{Winner: -1, Turns: 501, Events: map[engine.EventKind]int{engine.EventTimeout: 2}},
	}

	r := aggregate(shortTrack(), results)

	assert.Equal(t, 4, r.Games)
	assert.Equal(t, 3, r.Finished)
	assert.Equal(t, 1, r.Stalled)
	assert.Equal(t, []int{2, 1}, r.SeatWins)
	assert.Equal(t, []string{"Red", "Blue"}, r.Seats)
	assert.Equal(t, 10, r.MinTurns)
	assert.Equal(t, 40, r.MaxTurns)
	assert.InDelta(t, 23.33, r.MeanTurns, 0.01)
	assert.Equal(t, 20.0, r.MedianTurns)
	assert.Equal(t, 10, r.Events[engine.EventRoll])
	assert.Equal(t, 2, r.Events[engine.EventTimeout])
	assert.InDelta(t, 2.0/3, r.WinRate(0), 1e-9)
	assert.Zero(t, r.WinRate(5))
}

func TestAggregate_EvenMedian(t *testing.T) {
	r := aggregate(shortTrack(), []GameResult{
		{Winner: 0, Turns: 10},
		{Winner: 1, Turns: 15},
	})
	assert.Equal(t, 12.5, r.MedianTurns)
}

func TestPrintReport(t *testing.T) {
	r := aggregate(shortTrack(), []GameResult{
		{Winner: 0, Turns: 12, Events: map[engine.EventKind]int{engine.EventRoll: 6, engine.EventVictory: 1}},
		{Winner: -1, Turns: 501, Events: map[engine.EventKind]int{}},
	})

	var buf bytes.Buffer
	PrintReport(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"=== short ===",
		"Games: 2, finished: 1, stalled: 1",
		"Turns: min 12, median 12.0, mean 12.0, max 12 (mean 6.0 rounds)",
		"1. Red",
		"100.0%",
		"roll",
		"3.00",
		"1 races hit the turn limit",
	} {
		assert.Contains(t, out, want)
	}
}

func TestCommand_ProjectConfigs(t *testing.T) {
	var buf bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &buf

	err := cmd.Run(context.Background(), []string{
		"analyze",
		"--config-dir", filepath.Join("..", "..", "configs"),
		"--games", "3",
		"--workers", "2",
		"sprint",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Simulating 3 games per config")
	assert.True(t, strings.Contains(out, "=== "), "expected a report section, got %s", out)
}

func TestCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing config dir", []string{"--config-dir", "/non/existent/path"}, ""},
		{"unknown config", []string{"--config-dir", filepath.Join("..", "..", "configs"), "nope"}, "nope"},
		{"bad question mode", []string{"--config-dir", filepath.Join("..", "..", "configs"), "--question-mode", "random"}, "random"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCommand()
			cmd.Writer = &bytes.Buffer{}
			err := cmd.Run(context.Background(), append([]string{"analyze", "--games", "1"}, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
