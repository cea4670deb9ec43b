package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/questions"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Turn Operations
	BeginTurn(ctx context.Context, sessionID string) (*TurnOutcome, error)
	Answer(ctx context.Context, sessionID string, index int) (*TurnOutcome, error)
	Timeout(ctx context.Context, sessionID string) (*TurnOutcome, error)
	Roll(ctx context.Context, sessionID string) (*TurnOutcome, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*StateView, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetStandings(ctx context.Context, sessionID string) ([]engine.Standing, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session. Engine calls must hold the
// session lock.
type Session struct {
	ID             string
	Engine         engine.Engine
	Config         *engine.GameConfig
	Deck           *questions.Deck
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Lock serializes access to the session's engine
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock
func (s *Session) Unlock() { s.mu.Unlock() }

// QuestionCursor returns where the session's deck will deal next
func (s *Session) QuestionCursor() int {
	if s.Deck == nil {
		return 0
	}
	return s.Deck.Cursor()
}
