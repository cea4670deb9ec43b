package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Turn operations
	BeginTurn(ctx context.Context) (*TurnResult, error)
	Answer(ctx context.Context, index int) (*TurnResult, error)
	Timeout(ctx context.Context) (*TurnResult, error)
	Roll(ctx context.Context) (*TurnResult, error)

	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Phase() Phase
	CurrentTeam() *Team
	IsGameOver() bool

	// Configuration
	GetConfig() *GameConfig
	Path() *Path
	Rules() Rules

	// Views
	Standings() []Standing
}

// Option configures a TurnEngine at construction
type Option func(*TurnEngine)

// WithDie sets the randomness source
func WithDie(d Die) Option {
	return func(e *TurnEngine) {
		if d != nil {
			e.die = d
		}
	}
}

// WithQuestions sets the question source
func WithQuestions(q QuestionSource) Option {
	return func(e *TurnEngine) {
		if q != nil {
			e.questions = q
		}
	}
}

// WithAnimator sets the per-step movement animator
func WithAnimator(a Animator) Option {
	return func(e *TurnEngine) {
		if a != nil {
			e.animator = a
		}
	}
}

// WithSink sets the outcome event sink
func WithSink(s EventSink) Option {
	return func(e *TurnEngine) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *TurnEngine) {
		e.logger = l
	}
}

// WithClock overrides the time source used for event timestamps
func WithClock(now func() time.Time) Option {
	return func(e *TurnEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// TurnEngine implements the Engine interface
type TurnEngine struct {
	config *GameConfig
	path   *Path
	rules  Rules
	tiles  *TileResolver
	state  *GameState

	die       Die
	questions QuestionSource
	animator  Animator
	sink      EventSink
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a turn engine for the provided configuration and starts the
// first team's turn.
func New(config *GameConfig, opts ...Option) (*TurnEngine, error) {
	if config == nil {
		config = DefaultGameConfig()
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	path, err := config.BuildPath()
	if err != nil {
		return nil, err
	}
	rules := config.EffectiveRules()

	e := &TurnEngine{
		config:    config,
		path:      path,
		rules:     rules,
		tiles:     NewTileResolver(rules, path),
		die:       NewCryptoDie(),
		questions: NoQuestions{},
		animator:  NopAnimator{},
		sink:      NopSink{},
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.state = InitGameStateFromConfig(config)
	e.state.Turn.StartedAt = e.now()
	e.state.Turn.Stage = path.Stage(e.CurrentTeam().Position)
	return e, nil
}

// GetState returns the current game state
func (e *TurnEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the game state (used for persistence loading)
func (e *TurnEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("%w: state cannot be nil", ErrInvalidState)
	}
	if len(state.Teams) != len(e.state.Teams) {
		return fmt.Errorf("%w: expected %d teams, got %d", ErrInvalidState, len(e.state.Teams), len(state.Teams))
	}
	if state.CurrentTurn < 0 || state.CurrentTurn >= len(state.Teams) {
		return fmt.Errorf("%w: current turn %d out of range", ErrInvalidState, state.CurrentTurn)
	}
	if state.Turn == nil {
		return fmt.Errorf("%w: missing turn context", ErrInvalidState)
	}
	for _, t := range state.Teams {
		if t == nil {
			return fmt.Errorf("%w: nil team", ErrInvalidState)
		}
		if err := t.Validate(e.rules); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		if t.Position > e.path.FinishIndex() {
			return fmt.Errorf("%w: team %d beyond finish", ErrInvalidState, t.ID)
		}
	}
	e.state = state
	return nil
}

// GetConfig returns the game configuration
func (e *TurnEngine) GetConfig() *GameConfig {
	return e.config
}

// Path returns the race path
func (e *TurnEngine) Path() *Path {
	return e.path
}

// Rules returns the effective rule set
func (e *TurnEngine) Rules() Rules {
	return e.rules
}

// Phase returns the current turn phase
func (e *TurnEngine) Phase() Phase {
	return e.state.Turn.Phase
}

// CurrentTeam returns the team whose turn it is
func (e *TurnEngine) CurrentTeam() *Team {
	return e.state.Teams[e.state.CurrentTurn]
}

// IsGameOver checks if a winner has been declared
func (e *TurnEngine) IsGameOver() bool {
	return e.state.GameOver
}

// BeginTurn opens the active team's turn. A frozen team loses the turn on
// the spot; otherwise a question is drawn for the team's stage. When no
// question is available the roll is unlocked directly.
func (e *TurnEngine) BeginTurn(ctx context.Context) (*TurnResult, error) {
	if err := e.requirePhase("begin_turn", PhaseAwaitingQuestion); err != nil {
		return nil, err
	}
	if e.state.Turn.Question != nil {
		return nil, e.reject("begin_turn", fmt.Errorf("%w: question already pending", ErrWrongPhase))
	}
	if e.path.Len() == 0 {
		return nil, ErrInvalidPath
	}

	team := e.CurrentTeam()
	mark := len(e.state.History)
	result := &TurnResult{TeamID: team.ID, From: team.Position, To: team.Position}

	if team.Status.IsFrozen {
		team.Status.IsFrozen = false
		e.emit(EventTurnSkip, team, fmt.Sprintf("%s is stuck and loses this turn", team.Name), nil)
		result.Skipped = true
		e.finishTurn(team)
		return e.complete(result, mark), nil
	}

	stage := e.path.Stage(team.Position)
	e.state.Turn.Stage = stage

	q, err := e.questions.NextQuestion(ctx, stage)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil || !validQuestion(q) {
		e.logger.Warn().Err(err).Int("team", team.ID).Int("stage", stage).Msg("no question available, unlocking roll")
		e.enterTrack(team)
		e.emit(EventMissingQuestion, team, fmt.Sprintf("No question for %s, roll unlocked", team.Name),
			map[string]any{"stage": stage})
		e.setPhase(PhaseAwaitingRoll)
		return e.complete(result, mark), nil
	}

	e.state.Turn.Question = q
	result.Question = q
	e.emit(EventQuestion, team, fmt.Sprintf("Question for %s: %s", team.Name, q.Text),
		map[string]any{"question_id": q.ID, "stage": stage})
	return e.complete(result, mark), nil
}

// Answer submits the active team's answer to the pending question
func (e *TurnEngine) Answer(ctx context.Context, index int) (*TurnResult, error) {
	q, err := e.pendingQuestion("answer")
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(q.Options) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidAnswer, index, len(q.Options))
	}
	return e.resolveAnswer(index == q.CorrectIndex, false), nil
}

// Timeout reports that the answer clock ran out. It counts as a wrong answer.
func (e *TurnEngine) Timeout(ctx context.Context) (*TurnResult, error) {
	if _, err := e.pendingQuestion("timeout"); err != nil {
		return nil, err
	}
	e.state.Turn.TimeExpired = true
	return e.resolveAnswer(false, true), nil
}

// Roll throws the dice for the active team, walks it along the path,
// resolves the arrival tile and ends the turn.
func (e *TurnEngine) Roll(ctx context.Context) (*TurnResult, error) {
	if err := e.requirePhase("roll", PhaseAwaitingRoll); err != nil {
		return nil, err
	}

	team := e.CurrentTeam()
	mark := len(e.state.History)
	from := team.Position
	result := &TurnResult{TeamID: team.ID, From: from}

	m := ResolveMovement(RollInput{
		Durability: team.Durability,
		DoubleDice: team.Status.HasDoubleDiceNextRoll,
		ComboBonus: e.state.Turn.ComboBonus,
	}, e.die)
	if m.DoubleDiceUsed {
		team.Status.HasDoubleDiceNextRoll = false
	}
	if m.ComboApplied > 0 {
		e.state.Turn.ComboBonus = 0
	}

	target := e.target(from, &m)
	result.Movement = &m
	e.emit(EventRoll, team, fmt.Sprintf("%s rolled %v: %s", team.Name, m.Rolls, describeMove(m)),
		map[string]any{"rolls": m.Rolls, "steps": m.Steps, "direction": m.Direction, "mode": string(m.Mode), "target": target})

	e.setPhase(PhaseMoving)
	result.Crossed = e.walk(ctx, team, target, true)

	e.setPhase(PhaseResolvingTile)
	if e.reachedFinish(team) {
		e.declareVictory(team, result)
		return e.complete(result, mark), nil
	}

	if team.Position != from {
		outcome := e.resolveTile(ctx, team)
		result.Tile = &outcome
		if e.reachedFinish(team) {
			e.declareVictory(team, result)
			return e.complete(result, mark), nil
		}
	}

	result.To = team.Position
	e.finishTurn(team)
	return e.complete(result, mark), nil
}

// target turns a resolved movement into a clamped destination index
func (e *TurnEngine) target(from int, m *Movement) int {
	if m.Mode == ModeCheckpointJump {
		to := from + 1
		if cp, ok := e.path.NextCheckpoint(from); ok {
			to = cp
		}
		to = e.path.Clamp(to)
		m.Steps = to - from
		return to
	}
	return e.path.Clamp(from + m.Direction*m.Steps)
}

// walk steps the team one tile at a time toward target, waiting on the
// animator for every step. Forward steps that land on a checkpoint short of
// the final destination award the checkpoint bonus when checkpoints is set.
func (e *TurnEngine) walk(ctx context.Context, team *Team, target int, checkpoints bool) []int {
	target = e.path.Clamp(target)
	dir := Forward
	if target < team.Position {
		dir = Backward
	}

	var crossed []int
	for team.Position != target {
		from, to := team.Position, team.Position+dir
		if err := e.animator.AnimateStep(ctx, team.ID, from, to); err != nil {
			e.logger.Warn().Err(err).Int("team", team.ID).Int("from", from).Int("to", to).Msg("step animation failed")
		}
		team.Position = to

		if checkpoints && dir == Forward && to != target && e.path.IsCheckpoint(to) {
			e.awardCheckpoint(team, to)
			crossed = append(crossed, to)
		}
	}
	return crossed
}

func (e *TurnEngine) awardCheckpoint(team *Team, index int) {
	team.RepairAll(e.rules.CheckpointRepair, e.rules)
	team.Status.ImmuneTurnsRemaining += e.rules.CheckpointImmunity
	stage := e.path.Stage(index)
	e.emit(EventCheckpoint, team,
		fmt.Sprintf("%s passed checkpoint %d and enters %s", team.Name, index, e.path.StageName(stage)),
		map[string]any{
			"index":        index,
			"stage":        stage,
			"stage_name":   e.path.StageName(stage),
			"immune_turns": team.Status.ImmuneTurnsRemaining,
			"durability":   team.Durability,
		})
}

// resolveTile applies the arrival tile and walks any follow-up movement
func (e *TurnEngine) resolveTile(ctx context.Context, team *Team) TileOutcome {
	out := e.tiles.Resolve(team, e.state.Teams)
	if out.Destination != team.Position {
		e.walk(ctx, team, out.Destination, false)
	}

	payload := map[string]any{
		"tile":        string(out.Tile),
		"position":    out.Position,
		"destination": team.Position,
		"icon":        out.Descriptor.Icon,
		"title":       out.Descriptor.Title,
		"durability":  team.Durability,
	}

	switch {
	case out.Slid:
		e.emit(EventSlide, team,
			fmt.Sprintf("%s has flat tires and slides past %s", team.Name, out.Descriptor.Title), payload)
	case out.SwappedWith != nil:
		other := e.teamByID(*out.SwappedWith)
		payload["swapped_with"] = *out.SwappedWith
		e.emit(EventSwap, team,
			fmt.Sprintf("%s trades places with %s", team.Name, other.Name), payload)
	case out.Tile != TileNormal:
		payload["applied"] = out.Applied
		e.emit(EventTileEffect, team,
			fmt.Sprintf("%s: %s. %s", team.Name, out.Descriptor.Title, out.Descriptor.Text), payload)
	}
	return out
}

func (e *TurnEngine) resolveAnswer(correct, timedOut bool) *TurnResult {
	team := e.CurrentTeam()
	mark := len(e.state.History)
	result := &TurnResult{
		TeamID:   team.ID,
		Question: e.state.Turn.Question,
		Correct:  &correct,
		TimedOut: timedOut,
		From:     team.Position,
		To:       team.Position,
	}
	e.state.Turn.Question = nil

	if !correct {
		team.WrongCount++
		team.ComboCount = 0
		kind, msg := EventAnswer, fmt.Sprintf("%s answered wrong", team.Name)
		if timedOut {
			kind, msg = EventTimeout, fmt.Sprintf("%s ran out of time", team.Name)
		}
		e.emit(kind, team, msg, map[string]any{"correct": false})
		e.finishTurn(team)
		return e.complete(result, mark)
	}

	team.CorrectCount++
	team.ComboCount++
	e.emit(EventAnswer, team, fmt.Sprintf("%s answered correctly", team.Name),
		map[string]any{"correct": true, "combo": team.ComboCount})
	e.enterTrack(team)

	if team.ComboCount >= e.rules.ComboThreshold {
		e.state.Turn.ComboBonus = e.rules.ComboBonus
		e.emit(EventCombo, team, fmt.Sprintf("%s is on a %d answer streak: +%d on this roll",
			team.Name, team.ComboCount, e.rules.ComboBonus),
			map[string]any{"combo": team.ComboCount, "bonus": e.rules.ComboBonus})
	}

	result.To = team.Position
	e.setPhase(PhaseAwaitingRoll)
	return e.complete(result, mark)
}

// enterTrack moves a staging team onto the first tile
func (e *TurnEngine) enterTrack(team *Team) {
	if !team.InStaging() {
		return
	}
	team.Position = 0
	e.emit(EventEnterTrack, team, fmt.Sprintf("%s enters the track", team.Name), map[string]any{"position": 0})
}

// finishTurn applies decay to the acting team and hands the turn over
func (e *TurnEngine) finishTurn(team *Team) {
	e.setPhase(PhaseDecaying)
	report := ApplyDecay(team, e.rules)
	if len(report.Decayed) > 0 || report.SkippedImmune || report.Promoted {
		msg := fmt.Sprintf("%s: wear and tear on %v", team.Name, report.Decayed)
		if report.SkippedImmune {
			msg = fmt.Sprintf("%s is protected from wear this turn", team.Name)
		} else if len(report.Decayed) == 0 {
			msg = fmt.Sprintf("%s will be protected next turn", team.Name)
		}
		e.emit(EventDecay, team, msg, map[string]any{
			"decayed":    report.Decayed,
			"immune":     report.SkippedImmune,
			"promoted":   report.Promoted,
			"turn_count": report.TurnCount,
			"durability": team.Durability,
		})
	}
	e.rotate()
}

func (e *TurnEngine) rotate() {
	e.state.CurrentTurn = (e.state.CurrentTurn + 1) % len(e.state.Teams)
	e.state.TurnNumber++
	next := e.CurrentTeam()
	e.state.Turn = &TurnContext{
		TeamID:    next.ID,
		Phase:     PhaseAwaitingQuestion,
		Stage:     e.path.Stage(next.Position),
		StartedAt: e.now(),
	}
	e.emit(EventTurnStart, next, fmt.Sprintf("%s's turn", next.Name),
		map[string]any{"turn_number": e.state.TurnNumber})
}

func (e *TurnEngine) reachedFinish(team *Team) bool {
	return team.Position == e.path.FinishIndex()
}

func (e *TurnEngine) declareVictory(team *Team, result *TurnResult) {
	id := team.ID
	e.state.GameOver = true
	e.state.Winner = &id
	e.setPhase(PhaseGameOver)

	msg := fmt.Sprintf("%s wins the race!", team.Name)
	if e.config.Messages.Victory != "" {
		msg = fmt.Sprintf(e.config.Messages.Victory, team.Name)
	}
	e.emit(EventVictory, team, msg, map[string]any{
		"team_name":  team.Name,
		"turn_count": team.TurnCount,
		"turn":       e.state.TurnNumber,
	})

	result.To = team.Position
	result.Victory = true
	e.logger.Info().Int("team", team.ID).Str("name", team.Name).Int("turn", e.state.TurnNumber).Msg("race finished")
}

func (e *TurnEngine) pendingQuestion(op string) (*Question, error) {
	if err := e.requirePhase(op, PhaseAwaitingQuestion); err != nil {
		return nil, err
	}
	if e.state.Turn.Question == nil {
		return nil, e.reject(op, fmt.Errorf("%w: no question pending", ErrWrongPhase))
	}
	return e.state.Turn.Question, nil
}

// requirePhase rejects calls made outside their phase without touching state
func (e *TurnEngine) requirePhase(op string, want Phase) error {
	if e.state.GameOver {
		return e.reject(op, ErrGameOver)
	}
	if got := e.state.Turn.Phase; got != want {
		return e.reject(op, fmt.Errorf("%w: %s during %s", ErrWrongPhase, op, got))
	}
	return nil
}

func (e *TurnEngine) reject(op string, err error) error {
	e.logger.Debug().Err(err).Str("op", op).Msg("ignored call")
	return err
}

func (e *TurnEngine) setPhase(p Phase) {
	e.state.Turn.Phase = p
}

func (e *TurnEngine) emit(kind EventKind, team *Team, msg string, payload map[string]any) {
	ev := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		TeamID:    team.ID,
		Turn:      e.state.TurnNumber,
		Message:   msg,
		Payload:   payload,
		Timestamp: e.now(),
	}
	e.state.History = append(e.state.History, ev)
	e.state.Message = msg
	e.logger.Debug().Str("kind", string(kind)).Int("team", team.ID).Msg(msg)
	e.sink.Emit(ev)
}

// complete stamps the result with the post-call state and asserts the
// per-team invariants. A violation is a programming error.
func (e *TurnEngine) complete(result *TurnResult, mark int) *TurnResult {
	for _, t := range e.state.Teams {
		if err := t.Validate(e.rules); err != nil {
			panic(fmt.Sprintf("engine invariant violated: %v", err))
		}
	}

	result.Phase = e.state.Turn.Phase
	result.NextTeam = e.CurrentTeam().ID
	if result.Movement == nil && !result.Victory {
		result.To = e.teamByID(result.TeamID).Position
	}
	result.Events = append([]Event(nil), e.state.History[mark:]...)
	return result
}

func (e *TurnEngine) teamByID(id int) *Team {
	for _, t := range e.state.Teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// IsWrongPhase reports whether err is an ignored out-of-phase call
func IsWrongPhase(err error) bool {
	return errors.Is(err, ErrWrongPhase) || errors.Is(err, ErrGameOver)
}

func validQuestion(q *Question) bool {
	return q != nil && len(q.Options) >= 2 && q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}

func describeMove(m Movement) string {
	dir := "forward"
	if m.Direction == Backward {
		dir = "backward"
	}
	switch m.Mode {
	case ModeCheckpointJump:
		return fmt.Sprintf("jump %d to the next checkpoint", m.Steps)
	case ModeAllBroken:
		return fmt.Sprintf("crawl 1 %s", dir)
	}
	return fmt.Sprintf("%d %s", m.Steps, dir)
}
