package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand/v2"
	"sync"
)

// Die produces one uniformly distributed face in [1, DieFaces]
type Die interface {
	Roll() int
}

// CryptoDie draws faces from crypto/rand using rejection sampling so that
// every face is equally likely.
type CryptoDie struct{}

// NewCryptoDie creates the production die
func NewCryptoDie() *CryptoDie {
	return &CryptoDie{}
}

// sampleLimit is the largest multiple of DieFaces that fits in a uint32
const sampleLimit = math.MaxUint32 / DieFaces * DieFaces

// Roll returns a face in [1, DieFaces]
func (CryptoDie) Roll() int {
	var buf [4]byte
	for {
		if _, err := crand.Read(buf[:]); err != nil {
			return mrand.IntN(DieFaces) + 1
		}
		v := binary.LittleEndian.Uint32(buf[:])
		if v < sampleLimit {
			return int(v%DieFaces) + 1
		}
	}
}

// RandDie is a seeded pseudo-random die for reproducible simulations
type RandDie struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewRandDie creates a die seeded with seed
func NewRandDie(seed uint64) *RandDie {
	return &RandDie{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll returns a face in [1, DieFaces]
func (d *RandDie) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.IntN(DieFaces) + 1
}

// SequenceDie replays a fixed list of faces, cycling when exhausted
type SequenceDie struct {
	faces []int
	next  int
}

// NewSequenceDie creates a scripted die
func NewSequenceDie(faces ...int) *SequenceDie {
	return &SequenceDie{faces: faces}
}

// Roll returns the next scripted face
func (d *SequenceDie) Roll() int {
	if len(d.faces) == 0 {
		return 1
	}
	f := d.faces[d.next%len(d.faces)]
	d.next++
	return f
}

// Rolled returns how many faces have been consumed
func (d *SequenceDie) Rolled() int {
	return d.next
}

// MoveMode names the dice branch that produced a movement
type MoveMode string

const (
	ModeDefault        MoveMode = "default"
	ModeCheckpointJump MoveMode = "checkpoint_jump"
	ModeEngineBroken   MoveMode = "engine_broken"
	ModeSteeringBroken MoveMode = "steering_broken"
	ModeAllBroken      MoveMode = "all_broken"
)

// RollInput is the vehicle state the dice resolver reads
type RollInput struct {
	Durability Durability
	DoubleDice bool
	ComboBonus int
}

// Movement is the resolved result of a roll.
// For ModeCheckpointJump, Steps is left at zero; the engine turns the jump
// into a concrete target using the path.
type Movement struct {
	Mode           MoveMode `json:"mode"`
	Rolls          []int    `json:"rolls"`
	Steps          int      `json:"steps"`
	Direction      int      `json:"direction"`
	DoubleDiceUsed bool     `json:"double_dice_used,omitempty"`
	ComboApplied   int      `json:"combo_applied,omitempty"`
}

// ResolveMovement converts dice faces into a signed movement. The branches
// are tried in order: every part broken, steering broken, engine broken,
// then the intact vehicle. Modifiers only apply to the intact and
// engine-broken branches.
func ResolveMovement(in RollInput, die Die) Movement {
	engineBroken := in.Durability.Engine <= 0
	tiresBroken := in.Durability.Tires <= 0
	steeringBroken := in.Durability.Steering <= 0

	var m Movement
	switch {
	case engineBroken && tiresBroken && steeringBroken:
		face := die.Roll()
		return Movement{Mode: ModeAllBroken, Rolls: []int{face}, Steps: 1, Direction: parityDirection(face)}

	case steeringBroken:
		a, b := die.Roll(), die.Roll()
		steps := a
		if engineBroken {
			steps = engineBrokenSteps(a)
		}
		return Movement{Mode: ModeSteeringBroken, Rolls: []int{a, b}, Steps: steps, Direction: parityDirection(b)}

	case engineBroken:
		face := die.Roll()
		m = Movement{Mode: ModeEngineBroken, Rolls: []int{face}, Steps: engineBrokenSteps(face), Direction: Forward}

	default:
		face := die.Roll()
		if face == 1 {
			return Movement{Mode: ModeCheckpointJump, Rolls: []int{face}, Direction: Forward}
		}
		m = Movement{Mode: ModeDefault, Rolls: []int{face}, Steps: face, Direction: Forward}
	}

	if in.DoubleDice {
		m.Steps *= 2
		m.DoubleDiceUsed = true
	}
	if in.ComboBonus > 0 {
		m.Steps += in.ComboBonus
		m.ComboApplied = in.ComboBonus
	}
	return m
}

// engineBrokenSteps maps a face to the reduced movement of a dead engine
func engineBrokenSteps(face int) int {
	if face <= 3 {
		return 1
	}
	return 2
}

func parityDirection(face int) int {
	if face%2 == 0 {
		return Forward
	}
	return Backward
}
