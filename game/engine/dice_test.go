package engine

import "testing"

func intact() Durability { return Durability{Engine: 3, Tires: 3, Steering: 3} }

func TestResolveMovement_AllBroken(t *testing.T) {
	for face := 1; face <= DieFaces; face++ {
		in := RollInput{Durability: Durability{}, DoubleDice: true, ComboBonus: 1}
		m := ResolveMovement(in, NewSequenceDie(face))

		wantDir := Forward
		if face%2 == 1 {
			wantDir = Backward
		}
		if m.Mode != ModeAllBroken || m.Steps != 1 || m.Direction != wantDir {
			t.Errorf("face %d: expected 1 step direction %d, got %+v", face, wantDir, m)
		}
		if m.DoubleDiceUsed || m.ComboApplied != 0 {
			t.Errorf("face %d: modifiers must not apply when every part is broken, got %+v", face, m)
		}
	}
}

func TestResolveMovement_EngineBrokenMapping(t *testing.T) {
	tests := []struct {
		face  int
		steps int
	}{
		{1, 1}, {2, 1}, {3, 1},
		{4, 2}, {5, 2}, {6, 2},
	}
	for _, tt := range tests {
		in := RollInput{Durability: Durability{Engine: 0, Tires: 2, Steering: 2}}
		m := ResolveMovement(in, NewSequenceDie(tt.face))
		if m.Mode != ModeEngineBroken || m.Steps != tt.steps || m.Direction != Forward {
			t.Errorf("face %d: expected %d steps forward, got %+v", tt.face, tt.steps, m)
		}
	}
}

func TestResolveMovement_EngineBrokenModifiers(t *testing.T) {
	in := RollInput{Durability: Durability{Engine: 0, Tires: 1, Steering: 1}, DoubleDice: true, ComboBonus: 1}
	m := ResolveMovement(in, NewSequenceDie(5))
	// 2 steps, doubled, plus combo
	if m.Steps != 5 || !m.DoubleDiceUsed || m.ComboApplied != 1 {
		t.Errorf("Expected 5 steps with both modifiers, got %+v", m)
	}
}

func TestResolveMovement_SteeringBroken(t *testing.T) {
	tests := []struct {
		name      string
		a, b      int
		steps     int
		direction int
	}{
		{"even direction die", 5, 2, 5, Forward},
		{"odd direction die", 4, 3, 4, Backward},
		{"one is not a jump", 1, 6, 1, Forward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			die := NewSequenceDie(tt.a, tt.b)
			in := RollInput{Durability: Durability{Engine: 2, Tires: 2, Steering: 0}, DoubleDice: true, ComboBonus: 1}
			m := ResolveMovement(in, die)
			if m.Mode != ModeSteeringBroken || m.Steps != tt.steps || m.Direction != tt.direction {
				t.Errorf("Expected %d steps direction %d, got %+v", tt.steps, tt.direction, m)
			}
			if die.Rolled() != 2 {
				t.Errorf("Expected two dice draws, got %d", die.Rolled())
			}
			if m.DoubleDiceUsed || m.ComboApplied != 0 {
				t.Errorf("Modifiers must not apply with broken steering, got %+v", m)
			}
		})
	}
}

// Engine and steering both broken with tires intact: the two-roll protocol
// governs, and the magnitude die goes through the engine-broken mapping.
func TestResolveMovement_EngineAndSteeringBroken(t *testing.T) {
	tests := []struct {
		a, b      int
		steps     int
		direction int
	}{
		{1, 2, 1, Forward},
		{3, 1, 1, Backward},
		{4, 4, 2, Forward},
		{6, 5, 2, Backward},
	}
	for _, tt := range tests {
		die := NewSequenceDie(tt.a, tt.b)
		in := RollInput{Durability: Durability{Engine: 0, Tires: 3, Steering: 0}}
		m := ResolveMovement(in, die)
		if m.Mode != ModeSteeringBroken || m.Steps != tt.steps || m.Direction != tt.direction {
			t.Errorf("dice (%d,%d): expected %d steps direction %d, got %+v",
				tt.a, tt.b, tt.steps, tt.direction, m)
		}
		if die.Rolled() != 2 {
			t.Errorf("dice (%d,%d): expected two draws, got %d", tt.a, tt.b, die.Rolled())
		}
	}
}

func TestResolveMovement_Default(t *testing.T) {
	for face := 2; face <= DieFaces; face++ {
		m := ResolveMovement(RollInput{Durability: intact()}, NewSequenceDie(face))
		if m.Mode != ModeDefault || m.Steps != face || m.Direction != Forward {
			t.Errorf("face %d: expected %d steps forward, got %+v", face, face, m)
		}
	}

	m := ResolveMovement(RollInput{Durability: intact()}, NewSequenceDie(1))
	if m.Mode != ModeCheckpointJump {
		t.Errorf("Expected a face of 1 to request a checkpoint jump, got %+v", m)
	}

	// Broken tires alone do not change the dice
	m = ResolveMovement(RollInput{Durability: Durability{Engine: 1, Tires: 0, Steering: 1}}, NewSequenceDie(4))
	if m.Mode != ModeDefault || m.Steps != 4 {
		t.Errorf("Expected default movement with broken tires, got %+v", m)
	}
}

func TestResolveMovement_Modifiers(t *testing.T) {
	in := RollInput{Durability: intact(), DoubleDice: true}
	m := ResolveMovement(in, NewSequenceDie(3))
	if m.Steps != 6 || !m.DoubleDiceUsed {
		t.Errorf("Expected doubled 6 steps, got %+v", m)
	}

	in = RollInput{Durability: intact(), DoubleDice: true, ComboBonus: 1}
	m = ResolveMovement(in, NewSequenceDie(3))
	if m.Steps != 7 || m.ComboApplied != 1 {
		t.Errorf("Expected doubling before combo for 7 steps, got %+v", m)
	}

	in = RollInput{Durability: intact(), DoubleDice: true, ComboBonus: 1}
	m = ResolveMovement(in, NewSequenceDie(1))
	if m.DoubleDiceUsed || m.ComboApplied != 0 {
		t.Errorf("Checkpoint jump must leave modifiers untouched, got %+v", m)
	}
}

func TestDiceFaceRange(t *testing.T) {
	dice := map[string]Die{
		"crypto": NewCryptoDie(),
		"rand":   NewRandDie(42),
	}
	for name, die := range dice {
		t.Run(name, func(t *testing.T) {
			seen := make(map[int]int)
			for i := 0; i < 6000; i++ {
				f := die.Roll()
				if f < 1 || f > DieFaces {
					t.Fatalf("face %d out of range", f)
				}
				seen[f]++
			}
			for f := 1; f <= DieFaces; f++ {
				if seen[f] < 700 {
					t.Errorf("face %d drawn only %d times out of 6000", f, seen[f])
				}
			}
		})
	}
}

func TestRandDie_Deterministic(t *testing.T) {
	a, b := NewRandDie(7), NewRandDie(7)
	for i := 0; i < 100; i++ {
		if fa, fb := a.Roll(), b.Roll(); fa != fb {
			t.Fatalf("roll %d: seeded dice diverged (%d vs %d)", i, fa, fb)
		}
	}
}

func TestSequenceDie_Cycles(t *testing.T) {
	die := NewSequenceDie(2, 5)
	got := []int{die.Roll(), die.Roll(), die.Roll()}
	if got[0] != 2 || got[1] != 5 || got[2] != 2 {
		t.Errorf("Expected [2 5 2], got %v", got)
	}
}
