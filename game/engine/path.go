package engine

import (
	"fmt"
	"sort"
)

// Tile is one position on the path with its screen coordinates
type Tile struct {
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Type TileType `json:"type"`
}

// Path is the immutable ordered list of tiles a race runs along
type Path struct {
	tiles       []Tile
	checkpoints []int
	stageNames  []string
}

// NewPath validates and copies the tiles and checkpoints into a Path
func NewPath(tiles []Tile, checkpoints []int, stageNames []string) (*Path, error) {
	if len(tiles) < MinPathLength {
		return nil, fmt.Errorf("%w: need at least %d tiles, got %d", ErrInvalidPath, MinPathLength, len(tiles))
	}
	if len(tiles) > MaxPathLength {
		return nil, fmt.Errorf("%w: at most %d tiles allowed, got %d", ErrInvalidPath, MaxPathLength, len(tiles))
	}

	p := &Path{
		tiles:       make([]Tile, len(tiles)),
		checkpoints: make([]int, len(checkpoints)),
		stageNames:  append([]string(nil), stageNames...),
	}
	copy(p.tiles, tiles)
	copy(p.checkpoints, checkpoints)

	for i := range p.tiles {
		if p.tiles[i].Type == "" {
			p.tiles[i].Type = TileNormal
		}
		if !IsKnownTile(p.tiles[i].Type) {
			return nil, fmt.Errorf("%w: unknown tile type %q at index %d", ErrInvalidPath, p.tiles[i].Type, i)
		}
	}

	for i, cp := range p.checkpoints {
		if cp < 0 || cp >= len(p.tiles) {
			return nil, fmt.Errorf("%w: checkpoint %d outside path of %d tiles", ErrInvalidPath, cp, len(p.tiles))
		}
		if i > 0 && cp <= p.checkpoints[i-1] {
			return nil, fmt.Errorf("%w: checkpoints must be strictly increasing, got %v", ErrInvalidPath, checkpoints)
		}
	}

	return p, nil
}

// Len returns the number of tiles
func (p *Path) Len() int {
	return len(p.tiles)
}

// FinishIndex returns the index of the last tile
func (p *Path) FinishIndex() int {
	return len(p.tiles) - 1
}

// Tile returns the tile at index i
func (p *Path) Tile(i int) Tile {
	return p.tiles[i]
}

// Tiles returns a copy of every tile
func (p *Path) Tiles() []Tile {
	out := make([]Tile, len(p.tiles))
	copy(out, p.tiles)
	return out
}

// TileType returns the type at index i, or normal for staging and out-of-range
func (p *Path) TileType(i int) TileType {
	if i < 0 || i >= len(p.tiles) {
		return TileNormal
	}
	return p.tiles[i].Type
}

// Checkpoints returns a copy of the checkpoint indices
func (p *Path) Checkpoints() []int {
	return append([]int(nil), p.checkpoints...)
}

// IsCheckpoint reports whether index i is a configured checkpoint
func (p *Path) IsCheckpoint(i int) bool {
	n := sort.SearchInts(p.checkpoints, i)
	return n < len(p.checkpoints) && p.checkpoints[n] == i
}

// NextCheckpoint returns the first checkpoint strictly ahead of pos
func (p *Path) NextCheckpoint(pos int) (int, bool) {
	for _, cp := range p.checkpoints {
		if cp > pos {
			return cp, true
		}
	}
	return 0, false
}

// Clamp bounds a target index to the path
func (p *Path) Clamp(i int) int {
	return clamp(i, 0, p.FinishIndex())
}

// Stage returns the 1-based stage a position belongs to. Stage k is the leg
// that ends at checkpoint k; the final leg ends at the finish.
func (p *Path) Stage(pos int) int {
	for i, cp := range p.checkpoints {
		if pos < cp {
			return i + 1
		}
	}
	return len(p.checkpoints) + 1
}

// StageName returns the display name of a stage, or a generic label
func (p *Path) StageName(stage int) string {
	if stage >= 1 && stage <= len(p.stageNames) {
		return p.stageNames[stage-1]
	}
	return fmt.Sprintf("Stage %d", stage)
}
