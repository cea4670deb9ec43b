package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "race.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestRecordEvent_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	events := []engine.Event{
		{ID: "a", Kind: engine.EventAnswer, TeamID: 0, Turn: 1, Message: "Red answered correctly",
			Payload: map[string]any{"correct": true}, Timestamp: now},
		{ID: "b", Kind: engine.EventRoll, TeamID: 0, Turn: 1, Message: "Red rolled [4]", Timestamp: now.Add(time.Millisecond)},
	}
	for _, ev := range events {
		require.NoError(t, s.RecordEvent("s1", ev))
	}
	// Duplicate IDs are ignored
	require.NoError(t, s.RecordEvent("s1", events[0]))
	require.NoError(t, s.RecordEvent("other", engine.Event{ID: "c", Kind: engine.EventRoll, Timestamp: now}))

	got, err := s.Events("s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, engine.EventAnswer, got[0].Kind)
	assert.Equal(t, true, got[0].Payload["correct"])
	assert.Nil(t, got[1].Payload)
	assert.Equal(t, now.UnixNano(), got[0].Timestamp.UnixNano())
}

func TestRecentResults(t *testing.T) {
	s := openTestStore(t)
	base := time.Now()

	for i, name := range []string{"Red", "Blue", "Green"} {
		require.NoError(t, s.RecordResult(Result{
			SessionID:  "s" + name,
			ConfigName: "classic",
			WinnerID:   i,
			WinnerName: name,
			Turns:      10 + i,
			FinishedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	results, err := s.RecentResults(2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Green", results[0].WinnerName)
	assert.Equal(t, "Blue", results[1].WinnerName)
	assert.Equal(t, 12, results[0].Turns)

	empty := openTestStore(t)
	results, err = empty.RecentResults(0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestSink_RecordsRaceToVictory(t *testing.T) {
	s := openTestStore(t)

	cfg := &engine.GameConfig{
		Name:     "dash",
		Teams:    []engine.TeamConfig{{Name: "Red"}, {Name: "Blue"}},
		Layout:   []string{"...E"},
		Messages: engine.Messages{Victory: "%s wins!"},
	}
	q := &engine.Question{ID: 1, Stage: 1, Text: "2+2?", Options: []string{"3", "4"}, CorrectIndex: 1}
	e, err := engine.New(cfg,
		engine.WithDie(engine.NewSequenceDie(6)),
		engine.WithQuestions(engine.QuestionSourceFunc(func(context.Context, int) (*engine.Question, error) {
			return q, nil
		})),
		engine.WithSink(s.Sink("dash1", cfg.Name, zerolog.Nop())),
	)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = e.BeginTurn(ctx)
	require.NoError(t, err)
	_, err = e.Answer(ctx, 1)
	require.NoError(t, err)
	res, err := e.Roll(ctx)
	require.NoError(t, err)
	require.True(t, res.Victory)

	events, err := s.Events("dash1")
	require.NoError(t, err)
	assert.Len(t, events, len(e.GetState().History))
	assert.Equal(t, engine.EventVictory, events[len(events)-1].Kind)

	results, err := s.RecentResults(5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Result{
		SessionID:  "dash1",
		ConfigName: "dash",
		WinnerID:   0,
		WinnerName: "Red",
		Turns:      1,
		FinishedAt: results[0].FinishedAt,
	}, results[0])
}
