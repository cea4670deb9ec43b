package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TeamConfig describes one seat at the table
type TeamConfig struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Messages holds the configurable announcement strings
type Messages struct {
	Welcome string `json:"welcome"`
	Victory string `json:"victory"`
}

// GameConfig represents a race configuration loaded from JSON.
// The path is given either as explicit tiles or as layout rows of single
// character codes resolved through the legend.
type GameConfig struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Teams       []TeamConfig      `json:"teams"`
	Path        []Tile            `json:"path,omitempty"`
	Layout      []string          `json:"layout,omitempty"`
	Legend      map[string]string `json:"legend,omitempty"`
	Checkpoints []int             `json:"checkpoints,omitempty"`
	StageNames  []string          `json:"stage_names,omitempty"`
	Rules       *Rules            `json:"rules,omitempty"`
	Messages    Messages          `json:"messages"`
}

// DefaultLegend maps layout codes to tile types
var DefaultLegend = map[string]string{
	".": string(TileNormal),
	"M": string(TileMine),
	"o": string(TileRepairOne),
	"F": string(TileFullRepair),
	"E": string(TileFinish),
	"D": string(TileDamageAll),
	"R": string(TileRepairAll),
	"C": string(TileCheckpoint),
	"e": string(TileRepairEngine),
	"t": string(TileRepairTires),
	"s": string(TileRepairSteering),
	"2": string(TileDoubleDice),
	"I": string(TileImmune),
	"Z": string(TileSkipTurn),
	"X": string(TileSwap),
	"T": string(TileTrap),
	"P": string(TileTeleport),
	"x": string(TileDropEngine),
	"b": string(TileDropTire),
	"l": string(TileDropSteering),
}

// DefaultTeams are the seven seats used when a config names none
var DefaultTeams = []TeamConfig{
	{Name: "Red", Color: "#e74c3c"},
	{Name: "Blue", Color: "#3498db"},
	{Name: "Green", Color: "#2ecc71"},
	{Name: "Yellow", Color: "#f1c40f"},
	{Name: "Purple", Color: "#9b59b6"},
	{Name: "Orange", Color: "#e67e22"},
	{Name: "Teal", Color: "#1abc9c"},
}

// DefaultGameConfig returns the built-in classic race
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Five stages, four checkpoints, seven teams",
		Teams:       append([]TeamConfig(nil), DefaultTeams...),
		Layout: []string{
			"..D.2.M",
			".RX.ZIC",
			".bP.DtC",
			".Tx.eM2",
			".ZFCl.s",
			"DXIMoCE",
		},
		Checkpoints: []int{13, 20, 31, 40},
		StageNames:  []string{"Phuoc Long", "Central Highlands", "Hue - Da Nang", "Saigon", "Independence Palace"},
		Messages: Messages{
			Welcome: "Welcome to the race! Answer correctly to earn your roll.",
			Victory: "%s crosses the finish line and wins the race!",
		},
	}
}

// EffectiveRules returns the config rules, or the defaults when none are set
func (c *GameConfig) EffectiveRules() Rules {
	if c.Rules == nil {
		return DefaultRules()
	}
	return *c.Rules
}

// BuildPath resolves the tiles and checkpoints into a Path. Without explicit
// checkpoints, every checkpoint-typed tile becomes one.
func (c *GameConfig) BuildPath() (*Path, error) {
	tiles := c.Path
	if len(tiles) == 0 && len(c.Layout) > 0 {
		decoded, err := decodeLayout(c.Layout, c.Legend)
		if err != nil {
			return nil, err
		}
		tiles = decoded
	}

	checkpoints := c.Checkpoints
	if len(checkpoints) == 0 {
		for i, t := range tiles {
			if t.Type == TileCheckpoint {
				checkpoints = append(checkpoints, i)
			}
		}
	}
	return NewPath(tiles, checkpoints, c.StageNames)
}

// decodeLayout reads layout rows in path order. Odd rows are drawn right to
// left so consecutive tiles stay adjacent on screen.
func decodeLayout(layout []string, legend map[string]string) ([]Tile, error) {
	if legend == nil {
		legend = DefaultLegend
	}
	var tiles []Tile
	for y, row := range layout {
		codes := []rune(row)
		for i, code := range codes {
			name, ok := legend[string(code)]
			if !ok {
				return nil, fmt.Errorf("%w: unknown layout code '%c' at row %d, col %d", ErrInvalidPath, code, y+1, i+1)
			}
			x := i
			if y%2 == 1 {
				x = len(codes) - 1 - i
			}
			tiles = append(tiles, Tile{X: float64(x), Y: float64(y), Type: TileType(name)})
		}
	}
	return tiles, nil
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	if len(config.Teams) < MinTeams || len(config.Teams) > MaxTeams {
		return fmt.Errorf("%w: teams must number between %d and %d, got %d",
			ErrInvalidConfig, MinTeams, MaxTeams, len(config.Teams))
	}
	seen := make(map[string]bool)
	for i, t := range config.Teams {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: team %d has no name", ErrInvalidConfig, i+1)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate team name %q", ErrInvalidConfig, t.Name)
		}
		seen[t.Name] = true
	}

	if _, err := config.BuildPath(); err != nil {
		return err
	}

	if config.Rules != nil {
		if err := config.Rules.Validate(); err != nil {
			return err
		}
	}

	if config.Messages.Victory != "" && !strings.Contains(config.Messages.Victory, "%s") {
		return fmt.Errorf("%w: messages.victory must contain %%s for the team name", ErrInvalidConfig)
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// InitGameStateFromConfig creates a new game state using the provided configuration
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultGameConfig()
	}
	rules := config.EffectiveRules()

	teams := make([]*Team, len(config.Teams))
	for i, tc := range config.Teams {
		teams[i] = NewTeam(i, tc.Name, tc.Color, rules)
	}

	message := config.Messages.Welcome
	if message == "" {
		message = "Welcome to the race!"
	}

	return &GameState{
		ConfigName:  config.Name,
		Teams:       teams,
		CurrentTurn: 0,
		TurnNumber:  1,
		Turn: &TurnContext{
			TeamID: 0,
			Phase:  PhaseAwaitingQuestion,
			Stage:  1,
		},
		Message: message,
		History: []Event{},
	}
}
