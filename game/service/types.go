package service

import (
	"time"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *StateView         `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
	Path           []engine.Tile      `json:"path"`
}

// QuestionView is a question as shown to players. The correct answer is
// never part of it.
type QuestionView struct {
	ID      int      `json:"id"`
	Stage   int      `json:"stage"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// StateView is a snapshot of a game that is safe to hand to clients
type StateView struct {
	ConfigName    string        `json:"config_name"`
	TurnNumber    int           `json:"turn_number"`
	CurrentTeam   int           `json:"current_team"`
	Phase         engine.Phase  `json:"phase"`
	Stage         int           `json:"stage"`
	StageName     string        `json:"stage_name"`
	ComboBonus    int           `json:"combo_bonus"`
	Question      *QuestionView `json:"question,omitempty"`
	Teams         []engine.Team `json:"teams"`
	GameOver      bool          `json:"game_over"`
	Winner        *int          `json:"winner,omitempty"`
	Message       string        `json:"message"`
	HistoryLength int           `json:"history_length"`
	PathLength    int           `json:"path_length"`
	Checkpoints   []int         `json:"checkpoints"`
}

// TurnOutcome is the result of one turn operation
type TurnOutcome struct {
	*engine.TurnResult
	// Question is set when the call drew a new question
	Question *QuestionView `json:"question,omitempty"`
	// CorrectAnswer reveals the answer once a question is resolved
	CorrectAnswer *int       `json:"correct_answer,omitempty"`
	Message       string     `json:"message"`
	State         *StateView `json:"state"`
}

// HistoryOptions configures event history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated event history
type HistoryResponse struct {
	Events      []engine.Event `json:"events"`
	TotalEvents int            `json:"total_events"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Teams       int    `json:"teams"`
	PathLength  int    `json:"path_length"`
	Checkpoints int    `json:"checkpoints"`
	Stages      int    `json:"stages"`
}
