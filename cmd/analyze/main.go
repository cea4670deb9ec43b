// Command analyze plays races headlessly to help balance configurations.
// Every team answers correctly with a fixed probability, and the report
// summarizes race length, seat advantage and how often each event fires.
//
//	go run ./cmd/analyze --games 500 --accuracy 0.6 classic sprint
package main

import (
	"context"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/triviarace/game/config"
	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/questions"
)

// SimOptions control a simulation run
type SimOptions struct {
	Games    int
	Accuracy float64
	Seed     uint64
	MaxTurns int
	Workers  int
	Mode     questions.Mode
}

// GameResult is the outcome of one simulated race
type GameResult struct {
	Winner int // -1 when the race stalled
	Turns  int
	Events map[engine.EventKind]int
}

// Report aggregates the races of one configuration
type Report struct {
	Config      string
	Games       int
	Finished    int
	Stalled     int
	MinTurns    int
	MaxTurns    int
	MeanTurns   float64
	MedianTurns float64
	Seats       []string
	SeatWins    []int
	Events      map[engine.EventKind]int
}

// WinRate returns the share of finished races won from a seat
func (r *Report) WinRate(seat int) float64 {
	if r.Finished == 0 || seat < 0 || seat >= len(r.SeatWins) {
		return 0
	}
	return float64(r.SeatWins[seat]) / float64(r.Finished)
}

// answerer decides the option a simulated team picks
type answerer struct {
	rng      *mrand.Rand
	accuracy float64
}

func (a *answerer) pick(q *engine.Question) int {
	n := len(q.Options)
	if n < 2 || a.rng.Float64() < a.accuracy {
		return q.CorrectIndex
	}
	return (q.CorrectIndex + 1 + a.rng.IntN(n-1)) % n
}

// PlayGame runs one race to victory or until MaxTurns team turns passed
func PlayGame(ctx context.Context, cfg *engine.GameConfig, bank *questions.Bank, seed uint64, opts SimOptions) (GameResult, error) {
	result := GameResult{Winner: -1, Events: make(map[engine.EventKind]int)}

	e, err := engine.New(cfg,
		engine.WithDie(engine.NewRandDie(seed)),
		engine.WithQuestions(questions.NewDeck(bank, opts.Mode, int(seed%uint64(max(bank.Len(), 1))))),
		engine.WithSink(engine.SinkFunc(func(ev engine.Event) {
			result.Events[ev.Kind]++
		})),
	)
	if err != nil {
		return result, err
	}

	a := &answerer{rng: mrand.New(mrand.NewPCG(seed, ^seed)), accuracy: opts.Accuracy}

	for !e.IsGameOver() && e.GetState().TurnNumber <= opts.MaxTurns {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		begun, err := e.BeginTurn(ctx)
		if err != nil {
			return result, fmt.Errorf("turn %d: %w", e.GetState().TurnNumber, err)
		}
		if begun.Question != nil {
			if _, err := e.Answer(ctx, a.pick(begun.Question)); err != nil {
				return result, fmt.Errorf("turn %d: %w", e.GetState().TurnNumber, err)
			}
		}
		if e.Phase() == engine.PhaseAwaitingRoll {
			if _, err := e.Roll(ctx); err != nil {
				return result, fmt.Errorf("turn %d: %w", e.GetState().TurnNumber, err)
			}
		}
	}

	state := e.GetState()
	result.Turns = state.TurnNumber
	if state.Winner != nil {
		result.Winner = *state.Winner
	}
	return result, nil
}

// Simulate plays opts.Games races of one configuration in parallel
func Simulate(ctx context.Context, cfg *engine.GameConfig, bank *questions.Bank, opts SimOptions) (*Report, error) {
	if opts.Games < 1 {
		return nil, fmt.Errorf("games must be positive, got %d", opts.Games)
	}
	if opts.Accuracy < 0 || opts.Accuracy > 1 {
		return nil, fmt.Errorf("accuracy must be within [0, 1], got %v", opts.Accuracy)
	}

	results := make([]GameResult, opts.Games)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i := range results {
		g.Go(func() error {
			r, err := PlayGame(gctx, cfg, bank, opts.Seed+uint64(i), opts)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return aggregate(cfg, results), nil
}

func aggregate(cfg *engine.GameConfig, results []GameResult) *Report {
	r := &Report{
		Config:   cfg.Name,
		Games:    len(results),
		Seats:    make([]string, len(cfg.Teams)),
		SeatWins: make([]int, len(cfg.Teams)),
		Events:   make(map[engine.EventKind]int),
	}
	for i, t := range cfg.Teams {
		r.Seats[i] = t.Name
	}

	var turns []int
	for _, res := range results {
		for k, n := range res.Events {
			r.Events[k] += n
		}
		if res.Winner < 0 {
			r.Stalled++
			continue
		}
		r.Finished++
		r.SeatWins[res.Winner]++
		turns = append(turns, res.Turns)
	}

	if len(turns) == 0 {
		return r
	}
	sort.Ints(turns)
	r.MinTurns = turns[0]
	r.MaxTurns = turns[len(turns)-1]
	sum := 0
	for _, t := range turns {
		sum += t
	}
	r.MeanTurns = float64(sum) / float64(len(turns))
	mid := len(turns) / 2
	if len(turns)%2 == 0 {
		r.MedianTurns = float64(turns[mid-1]+turns[mid]) / 2
	} else {
		r.MedianTurns = float64(turns[mid])
	}
	return r
}

// PrintReport writes a human-readable summary
func PrintReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n=== %s ===\n", r.Config)
	fmt.Fprintf(w, "Games: %d, finished: %d, stalled: %d\n", r.Games, r.Finished, r.Stalled)
	if r.Finished > 0 {
		seats := max(len(r.Seats), 1)
		fmt.Fprintf(w, "Turns: min %d, median %.1f, mean %.1f, max %d (mean %.1f rounds)\n",
			r.MinTurns, r.MedianTurns, r.MeanTurns, r.MaxTurns, r.MeanTurns/float64(seats))
	}

	fmt.Fprintln(w, "Win rate by seat:")
	for i, name := range r.Seats {
		fmt.Fprintf(w, "  %d. %-10s %5.1f%% %s\n", i+1, name, r.WinRate(i)*100,
			strings.Repeat("█", int(r.WinRate(i)*40)))
	}

	kinds := make([]string, 0, len(r.Events))
	for k := range r.Events {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	fmt.Fprintln(w, "Events per game:")
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-18s %8.2f\n", k, float64(r.Events[engine.EventKind(k)])/float64(max(r.Games, 1)))
	}
	if r.Stalled > 0 {
		fmt.Fprintf(w, "⚠️  %d races hit the turn limit without a winner\n", r.Stalled)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	configs, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	mode, err := questions.ParseMode(cmd.String("question-mode"))
	if err != nil {
		return err
	}

	opts := SimOptions{
		Games:    int(cmd.Int("games")),
		Accuracy: cmd.Float("accuracy"),
		Seed:     uint64(cmd.Int("seed")),
		MaxTurns: int(cmd.Int("max-turns")),
		Workers:  int(cmd.Int("workers")),
		Mode:     mode,
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	names := cmd.Args().Slice()
	if len(names) == 0 {
		infos, err := configs.ListConfigs()
		if err != nil {
			return err
		}
		for _, info := range infos {
			names = append(names, info.ConfigID)
		}
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "Simulating %d games per config, accuracy %.0f%%, seed %d\n", opts.Games, opts.Accuracy*100, opts.Seed)

	for _, name := range names {
		cfg, err := configs.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("config %s: %w", name, err)
		}
		report, err := Simulate(ctx, cfg, configs.Questions(), opts)
		if err != nil {
			return fmt.Errorf("config %s: %w", name, err)
		}
		PrintReport(out, report)
	}
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Simulate races to balance configurations",
		ArgsUsage: "[config...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "games", Value: 200, Usage: "Races per configuration"},
			&cli.FloatFlag{Name: "accuracy", Value: 0.7, Usage: "Probability that a team answers correctly"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Seed of the first race"},
			&cli.IntFlag{Name: "max-turns", Value: 5000, Usage: "Team turns before a race counts as stalled"},
			&cli.IntFlag{Name: "workers", Usage: "Races played in parallel (0 uses every CPU)"},
			&cli.StringFlag{Name: "question-mode", Value: string(questions.Sequential), Usage: "Question order: sequential or stage"},
		},
		Action: run,
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}
