package engine

import "fmt"

// Team is the per-team race and vehicle state
type Team struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Color        string        `json:"color,omitempty"`
	Position     int           `json:"position"`
	Durability   Durability    `json:"durability"`
	Status       StatusEffects `json:"status"`
	TurnCount    int           `json:"turn_count"`
	CorrectCount int           `json:"correct_count"`
	WrongCount   int           `json:"wrong_count"`
	ComboCount   int           `json:"combo_count"`
}

// NewTeam creates a team in staging with every part at maximum
func NewTeam(id int, name, color string, rules Rules) *Team {
	return &Team{
		ID:         id,
		Name:       name,
		Color:      color,
		Position:   StagingPosition,
		Durability: rules.MaxDurability,
	}
}

// InStaging reports whether the team has not entered the path yet
func (t *Team) InStaging() bool {
	return t.Position == StagingPosition
}

// IsBroken reports whether a part is at zero durability
func (t *Team) IsBroken(p Part) bool {
	return t.Durability.Get(p) <= 0
}

// Damage lowers one part, never below zero
func (t *Team) Damage(p Part, amount int, rules Rules) {
	t.Durability.Set(p, clamp(t.Durability.Get(p)-amount, 0, rules.MaxDurability.Get(p)))
}

// Repair raises one part, never above its maximum
func (t *Team) Repair(p Part, amount int, rules Rules) {
	t.Durability.Set(p, clamp(t.Durability.Get(p)+amount, 0, rules.MaxDurability.Get(p)))
}

// DamageAll lowers every part by the same amount
func (t *Team) DamageAll(amount int, rules Rules) {
	for _, p := range Parts {
		t.Damage(p, amount, rules)
	}
}

// RepairAll raises every part by the same amount
func (t *Team) RepairAll(amount int, rules Rules) {
	for _, p := range Parts {
		t.Repair(p, amount, rules)
	}
}

// FullRepair restores every part to its maximum
func (t *Team) FullRepair(rules Rules) {
	t.Durability = rules.MaxDurability
}

// Validate checks the per-team invariants
func (t *Team) Validate(rules Rules) error {
	for _, p := range Parts {
		if v := t.Durability.Get(p); v < 0 || v > rules.MaxDurability.Get(p) {
			return fmt.Errorf("team %d: %s durability %d outside [0, %d]", t.ID, p, v, rules.MaxDurability.Get(p))
		}
	}
	if t.Status.ImmuneTurnsRemaining < 0 {
		return fmt.Errorf("team %d: negative immunity %d", t.ID, t.Status.ImmuneTurnsRemaining)
	}
	if t.Position < StagingPosition {
		return fmt.Errorf("team %d: position %d below staging", t.ID, t.Position)
	}
	return nil
}

// DecayReport describes what the turn-end decay did to a team
type DecayReport struct {
	SkippedStaging bool   `json:"skipped_staging,omitempty"`
	SkippedImmune  bool   `json:"skipped_immune,omitempty"`
	Decayed        []Part `json:"decayed,omitempty"`
	Promoted       bool   `json:"promoted,omitempty"`
	TurnCount      int    `json:"turn_count"`
}

// ApplyDecay runs the end-of-turn decay schedule on a team.
// Staging teams neither decay nor count turns. An immune team consumes one
// immunity turn instead of decaying. A pending next-turn immunity is promoted
// afterwards in every case.
func ApplyDecay(t *Team, rules Rules) DecayReport {
	var report DecayReport

	switch {
	case t.InStaging():
		report.SkippedStaging = true
	case t.Status.ImmuneTurnsRemaining > 0:
		t.Status.ImmuneTurnsRemaining--
		t.TurnCount++
		report.SkippedImmune = true
	default:
		t.TurnCount++
		for _, p := range Parts {
			if t.TurnCount%rules.DecayPeriods.Get(p) != 0 || t.IsBroken(p) {
				continue
			}
			t.Damage(p, rules.DecayAmount, rules)
			report.Decayed = append(report.Decayed, p)
		}
	}

	if t.Status.ImmuneNextTurn {
		t.Status.ImmuneNextTurn = false
		t.Status.ImmuneTurnsRemaining = 1
		report.Promoted = true
	}

	report.TurnCount = t.TurnCount
	return report
}
