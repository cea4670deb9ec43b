package engine

import "time"

// TileType tags a path tile with the effect resolved on arrival
type TileType string

const (
	TileNormal         TileType = "normal"
	TileMine           TileType = "mine"
	TileRepairOne      TileType = "repair_one"
	TileFullRepair     TileType = "full_repair"
	TileFinish         TileType = "finish"
	TileDamageAll      TileType = "damage_all"
	TileRepairAll      TileType = "repair_all"
	TileCheckpoint     TileType = "checkpoint"
	TileRepairEngine   TileType = "repair_engine"
	TileRepairTires    TileType = "repair_tires"
	TileRepairSteering TileType = "repair_steering"
	TileDoubleDice     TileType = "double_dice"
	TileImmune         TileType = "immune"
	TileSkipTurn       TileType = "skip_turn"
	TileSwap           TileType = "swap"
	TileTrap           TileType = "trap"
	TileTeleport       TileType = "teleport"
	TileDropEngine     TileType = "drop_engine"
	TileDropTire       TileType = "drop_tire"
	TileDropSteering   TileType = "drop_steering"
)

// Part is one of the three vehicle subsystems that wear down
type Part string

const (
	PartEngine   Part = "engine"
	PartTires    Part = "tires"
	PartSteering Part = "steering"
)

// Parts lists every durability part in display order
var Parts = []Part{PartEngine, PartTires, PartSteering}

const (
	// StagingPosition marks a team that has not entered the path yet
	StagingPosition = -1

	// Validation constants
	MinTeams          = 2
	MaxTeams          = 8
	MinPathLength     = 2
	MaxPathLength     = 1000
	MaxPartDurability = 100
	DieFaces          = 6

	Forward  = 1
	Backward = -1
)

// Phase is a state of the turn state machine
type Phase string

const (
	PhaseAwaitingQuestion Phase = "awaiting_question"
	PhaseAwaitingRoll     Phase = "awaiting_roll"
	PhaseMoving           Phase = "moving"
	PhaseResolvingTile    Phase = "resolving_tile"
	PhaseDecaying         Phase = "decaying"
	PhaseGameOver         Phase = "game_over"
)

// Durability holds one value per part
type Durability struct {
	Engine   int `json:"engine" yaml:"engine"`
	Tires    int `json:"tires" yaml:"tires"`
	Steering int `json:"steering" yaml:"steering"`
}

// Get returns the value stored for a part
func (d Durability) Get(p Part) int {
	switch p {
	case PartEngine:
		return d.Engine
	case PartTires:
		return d.Tires
	case PartSteering:
		return d.Steering
	}
	return 0
}

// Set stores the value for a part
func (d *Durability) Set(p Part, v int) {
	switch p {
	case PartEngine:
		d.Engine = v
	case PartTires:
		d.Tires = v
	case PartSteering:
		d.Steering = v
	}
}

// StatusEffects are the one-shot and stacked effects carried by a team
type StatusEffects struct {
	IsFrozen              bool `json:"is_frozen"`
	ImmuneTurnsRemaining  int  `json:"immune_turns_remaining"`
	ImmuneNextTurn        bool `json:"immune_next_turn"`
	HasDoubleDiceNextRoll bool `json:"has_double_dice_next_roll"`
}

// Question is a multiple-choice question handed out at the start of a turn
type Question struct {
	ID           int      `json:"id"`
	Stage        int      `json:"stage"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// TurnContext is the ephemeral state of the turn being played
type TurnContext struct {
	TeamID      int       `json:"team_id"`
	Phase       Phase     `json:"phase"`
	Stage       int       `json:"stage"`
	ComboBonus  int       `json:"combo_bonus"`
	Question    *Question `json:"question,omitempty"`
	TimeExpired bool      `json:"time_expired,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// GameState represents the complete game state
type GameState struct {
	ConfigName  string       `json:"config_name"`
	Teams       []*Team      `json:"teams"`
	CurrentTurn int          `json:"current_turn"`
	TurnNumber  int          `json:"turn_number"`
	Turn        *TurnContext `json:"turn"`
	GameOver    bool         `json:"game_over"`
	Winner      *int         `json:"winner,omitempty"`
	Message     string       `json:"message"`
	History     []Event      `json:"history"`
}

// TurnResult reports what a single engine call did
type TurnResult struct {
	TeamID   int          `json:"team_id"`
	Phase    Phase        `json:"phase"`
	Question *Question    `json:"-"`
	Correct  *bool        `json:"correct,omitempty"`
	TimedOut bool         `json:"timed_out,omitempty"`
	Skipped  bool         `json:"skipped,omitempty"`
	Movement *Movement    `json:"movement,omitempty"`
	From     int          `json:"from"`
	To       int          `json:"to"`
	Crossed  []int        `json:"checkpoints_crossed,omitempty"`
	Tile     *TileOutcome `json:"tile,omitempty"`
	Victory  bool         `json:"victory,omitempty"`
	NextTeam int          `json:"next_team"`
	Events   []Event      `json:"events"`
}
