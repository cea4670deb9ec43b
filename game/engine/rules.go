package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned when the configured path cannot host a race
	ErrInvalidPath = errors.New("invalid path")
	// ErrWrongPhase is returned when an operation is called outside its phase
	ErrWrongPhase = errors.New("operation not allowed in current phase")
	// ErrGameOver is returned for any operation after a winner is declared
	ErrGameOver = errors.New("game is over")
	// ErrInvalidAnswer is returned when an answer index is out of range
	ErrInvalidAnswer = errors.New("invalid answer index")
	// ErrInvalidState is returned by SetState for snapshots that break invariants
	ErrInvalidState = errors.New("invalid game state")
	// ErrInvalidConfig wraps every configuration validation failure
	ErrInvalidConfig = errors.New("invalid game config")
)

// Rules carries every tunable constant of the race
type Rules struct {
	MaxDurability      Durability `json:"max_durability" yaml:"max_durability"`
	DecayPeriods       Durability `json:"decay_periods" yaml:"decay_periods"`
	DecayAmount        int        `json:"decay_amount" yaml:"decay_amount"`
	CheckpointRepair   int        `json:"checkpoint_repair" yaml:"checkpoint_repair"`
	CheckpointImmunity int        `json:"checkpoint_immunity" yaml:"checkpoint_immunity"`
	MineDamage         int        `json:"mine_damage" yaml:"mine_damage"`
	TileRepair         int        `json:"tile_repair" yaml:"tile_repair"`
	TileDamage         int        `json:"tile_damage" yaml:"tile_damage"`
	ComboThreshold     int        `json:"combo_threshold" yaml:"combo_threshold"`
	ComboBonus         int        `json:"combo_bonus" yaml:"combo_bonus"`
}

// DefaultRules returns the standard rule set
func DefaultRules() Rules {
	return Rules{
		MaxDurability:      Durability{Engine: 3, Tires: 3, Steering: 3},
		DecayPeriods:       Durability{Engine: 3, Tires: 2, Steering: 4},
		DecayAmount:        1,
		CheckpointRepair:   1,
		CheckpointImmunity: 1,
		MineDamage:         10,
		TileRepair:         1,
		TileDamage:         1,
		ComboThreshold:     3,
		ComboBonus:         1,
	}
}

// Validate checks that the rule set can drive a game
func (r Rules) Validate() error {
	for _, p := range Parts {
		if m := r.MaxDurability.Get(p); m < 1 || m > MaxPartDurability {
			return fmt.Errorf("%w: max_durability.%s must be between 1 and %d, got %d",
				ErrInvalidConfig, p, MaxPartDurability, m)
		}
		if period := r.DecayPeriods.Get(p); period < 1 {
			return fmt.Errorf("%w: decay_periods.%s must be positive, got %d", ErrInvalidConfig, p, period)
		}
	}

	amounts := map[string]int{
		"decay_amount":        r.DecayAmount,
		"checkpoint_repair":   r.CheckpointRepair,
		"checkpoint_immunity": r.CheckpointImmunity,
		"mine_damage":         r.MineDamage,
		"tile_repair":         r.TileRepair,
		"tile_damage":         r.TileDamage,
		"combo_bonus":         r.ComboBonus,
	}
	for name, v := range amounts {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidConfig, name, v)
		}
	}

	if r.ComboThreshold < 1 {
		return fmt.Errorf("%w: combo_threshold must be at least 1, got %d", ErrInvalidConfig, r.ComboThreshold)
	}
	return nil
}
