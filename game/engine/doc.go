// Package engine provides the turn and rules engine for the Trivia Race game.
//
// The engine package implements the game mechanics including:
//   - The turn-phase state machine (question, roll, move, tile, decay, rotate)
//   - Dice resolution with degraded-vehicle movement rules
//   - Tile effect resolution and the nearest-team swap
//   - Durability decay, checkpoint repair and immunity stacking
//   - Game configuration loading and validation
//
// Core Types:
//
// TurnEngine drives one game instance. Team holds per-team vehicle state,
// Path is the immutable ordered list of tiles with its checkpoints, and Rules
// carries every tunable constant. GameState is the serializable snapshot of a
// game, including the outcome history.
//
// Collaborators:
//
// The engine never renders anything. It talks to the outside world through
// four narrow interfaces: QuestionSource, Die, Animator and EventSink. Any of
// them left unset is replaced by an explicit no-op stub at construction, so
// the engine runs fully headless in tests.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng, err := engine.New(config, engine.WithQuestions(deck))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, _ := eng.BeginTurn(ctx)
//	res, _ = eng.Answer(ctx, answerIndex)
//	if res.Phase == engine.PhaseAwaitingRoll {
//		res, _ = eng.Roll(ctx)
//	}
//
// Concurrency:
//
// A TurnEngine is not safe for concurrent use. Callers that expose a game to
// several clients must funnel every mutating call through one serializing
// point per game; the service package does this with a per-session lock.
package engine
