package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrConfigNotFound       = errors.New("configuration not found")
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface. Session lifecycle
// calls take the service lock; turn calls only take the session lock so
// games never wait on each other.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return NewGameServiceWithLogger(sessions, configs, zerolog.Nop())
}

// NewGameServiceWithLogger creates a game service that logs turn summaries
func NewGameServiceWithLogger(sessions SessionManager, configs ConfigManager, logger zerolog.Logger) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "classic"
	}
	return configName
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate the ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	s.logger.Info().Str("session", session.ID).Str("config", configID).Msg("session created")
	return s.info(session, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.touch(session)

	return s.info(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.logger.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// BeginTurn opens the active team's turn and draws its question
func (s *gameServiceImpl) BeginTurn(ctx context.Context, sessionID string) (*TurnOutcome, error) {
	return s.play(ctx, sessionID, "BEGIN", func(e engine.Engine) (*engine.TurnResult, error) {
		return e.BeginTurn(ctx)
	})
}

// Answer submits the active team's answer
func (s *gameServiceImpl) Answer(ctx context.Context, sessionID string, index int) (*TurnOutcome, error) {
	return s.play(ctx, sessionID, "ANSWER", func(e engine.Engine) (*engine.TurnResult, error) {
		return e.Answer(ctx, index)
	})
}

// Timeout reports that the answer clock ran out
func (s *gameServiceImpl) Timeout(ctx context.Context, sessionID string) (*TurnOutcome, error) {
	return s.play(ctx, sessionID, "TIMEOUT", func(e engine.Engine) (*engine.TurnResult, error) {
		return e.Timeout(ctx)
	})
}

// Roll throws the dice for the active team
func (s *gameServiceImpl) Roll(ctx context.Context, sessionID string) (*TurnOutcome, error) {
	return s.play(ctx, sessionID, "ROLL", func(e engine.Engine) (*engine.TurnResult, error) {
		return e.Roll(ctx)
	})
}

// play runs one engine operation under the session lock and persists the
// session afterwards
func (s *gameServiceImpl) play(ctx context.Context, sessionID, op string, fn func(engine.Engine) (*engine.TurnResult, error)) (*TurnOutcome, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	res, err := fn(sess.Engine)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("failed to update session")
	}

	out := &TurnOutcome{
		TurnResult: res,
		Message:    sess.Engine.GetState().Message,
		State:      newStateView(sess.Engine),
	}
	if res.Question != nil {
		if res.Correct == nil {
			out.Question = viewQuestion(res.Question)
		} else {
			answer := res.Question.CorrectIndex
			out.CorrectAnswer = &answer
		}
	}

	s.logger.Info().
		Str("session", sessionID).
		Str("op", op).
		Int("team", res.TeamID).
		Int("from", res.From).
		Int("to", res.To).
		Str("phase", string(res.Phase)).
		Bool("victory", res.Victory).
		Msgf("[%s] session=%s %d->%d", op, sessionID, res.From, res.To)
	return out, nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*StateView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.touch(sess)

	sess.Lock()
	defer sess.Unlock()
	return newStateView(sess.Engine), nil
}

// GetHistory returns the paginated outcome history
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	sess.Lock()
	history := sess.Engine.GetState().History
	var events []engine.Event
	total := len(history)
	if opts.Order == "desc" {
		events, total = engine.PageEvents(history, opts.Page, opts.Limit)
	} else {
		start := (opts.Page - 1) * opts.Limit
		end := min(start+opts.Limit, total)
		if start < total {
			events = append(events, history[start:end]...)
		}
	}
	sess.Unlock()

	if events == nil {
		events = []engine.Event{}
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &HistoryResponse{
		Events:      events,
		TotalEvents: total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// GetStandings returns the race leaderboard
func (s *gameServiceImpl) GetStandings(ctx context.Context, sessionID string) ([]engine.Standing, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.Engine.Standings(), nil
}

// ListConfigs returns available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a configuration by name
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return sess, nil
}

// touch refreshes the access time, which also persists the session
func (s *gameServiceImpl) touch(sess *Session) {
	sess.Lock()
	defer sess.Unlock()
	if err := s.sessions.UpdateLastAccessed(sess.ID); err != nil {
		s.logger.Warn().Err(err).Str("session", sess.ID).Msg("failed to update session")
	}
}

func (s *gameServiceImpl) info(sess *Session, configID string) *SessionInfo {
	sess.Lock()
	defer sess.Unlock()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      newStateView(sess.Engine),
		GameConfig:     sess.Config,
		Path:           sess.Engine.Path().Tiles(),
	}
}

// newStateView copies the engine state into a client view. The pending
// question is shown without its answer.
func newStateView(e engine.Engine) *StateView {
	st := e.GetState()
	path := e.Path()

	teams := make([]engine.Team, len(st.Teams))
	for i, t := range st.Teams {
		teams[i] = *t
	}

	view := &StateView{
		ConfigName:    st.ConfigName,
		TurnNumber:    st.TurnNumber,
		CurrentTeam:   st.CurrentTurn,
		Teams:         teams,
		GameOver:      st.GameOver,
		Winner:        st.Winner,
		Message:       st.Message,
		HistoryLength: len(st.History),
		PathLength:    path.Len(),
		Checkpoints:   path.Checkpoints(),
	}
	if st.Turn != nil {
		view.Phase = st.Turn.Phase
		view.Stage = st.Turn.Stage
		view.StageName = path.StageName(st.Turn.Stage)
		view.ComboBonus = st.Turn.ComboBonus
		if st.Turn.Question != nil {
			view.Question = viewQuestion(st.Turn.Question)
		}
	}
	return view
}

func viewQuestion(q *engine.Question) *QuestionView {
	return &QuestionView{
		ID:      q.ID,
		Stage:   q.Stage,
		Text:    q.Text,
		Options: append([]string(nil), q.Options...),
	}
}
