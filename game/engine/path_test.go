package engine

import "testing"

func TestPath_Stage(t *testing.T) {
	path, err := NewPath(linearPath(45, nil), []int{13, 20, 31, 40}, []string{"A", "B", "C", "D", "E"})
	if err != nil {
		t.Fatalf("Failed to build path: %v", err)
	}

	tests := []struct {
		pos   int
		stage int
		name  string
	}{
		{StagingPosition, 1, "A"},
		{0, 1, "A"},
		{12, 1, "A"},
		{13, 2, "B"},
		{19, 2, "B"},
		{20, 3, "C"},
		{31, 4, "D"},
		{40, 5, "E"},
		{44, 5, "E"},
	}
	for _, tt := range tests {
		stage := path.Stage(tt.pos)
		if stage != tt.stage {
			t.Errorf("position %d: expected stage %d, got %d", tt.pos, tt.stage, stage)
		}
		if name := path.StageName(stage); name != tt.name {
			t.Errorf("position %d: expected stage name %s, got %s", tt.pos, tt.name, name)
		}
	}
	if path.StageName(9) != "Stage 9" {
		t.Errorf("Expected generic label for unnamed stage, got %s", path.StageName(9))
	}
}

func TestPath_Checkpoints(t *testing.T) {
	path, err := NewPath(linearPath(30, nil), []int{10, 20}, nil)
	if err != nil {
		t.Fatalf("Failed to build path: %v", err)
	}

	if !path.IsCheckpoint(10) || path.IsCheckpoint(11) {
		t.Error("IsCheckpoint mismatch")
	}
	if cp, ok := path.NextCheckpoint(10); !ok || cp != 20 {
		t.Errorf("Expected next checkpoint after 10 to be 20, got %d %v", cp, ok)
	}
	if cp, ok := path.NextCheckpoint(StagingPosition); !ok || cp != 10 {
		t.Errorf("Expected first checkpoint from staging, got %d %v", cp, ok)
	}
	if _, ok := path.NextCheckpoint(20); ok {
		t.Error("Expected no checkpoint after the last one")
	}

	cps := path.Checkpoints()
	cps[0] = 99
	if !path.IsCheckpoint(10) {
		t.Error("Checkpoints must return a copy")
	}
}

func TestPath_Clamp(t *testing.T) {
	path, _ := NewPath(linearPath(10, nil), nil, nil)
	tests := map[int]int{-5: 0, 0: 0, 4: 4, 9: 9, 15: 9}
	for in, want := range tests {
		if got := path.Clamp(in); got != want {
			t.Errorf("Clamp(%d): expected %d, got %d", in, want, got)
		}
	}
	if path.TileType(-1) != TileNormal || path.TileType(100) != TileNormal {
		t.Error("Out of range tiles must read as normal")
	}
}

func TestNewPath_NormalizesEmptyType(t *testing.T) {
	tiles := []Tile{{X: 0}, {X: 1, Type: TileFinish}}
	path, err := NewPath(tiles, nil, nil)
	if err != nil {
		t.Fatalf("Failed to build path: %v", err)
	}
	if path.TileType(0) != TileNormal {
		t.Errorf("Expected empty type to read as normal, got %q", path.TileType(0))
	}
	if tiles[0].Type != "" {
		t.Error("NewPath must not mutate its input")
	}
}

func TestPageEvents(t *testing.T) {
	events := make([]Event, 7)
	for i := range events {
		events[i] = Event{Turn: i}
	}

	page, total := PageEvents(events, 1, 3)
	if total != 7 || len(page) != 3 || page[0].Turn != 6 || page[2].Turn != 4 {
		t.Errorf("Unexpected first page: %+v (total %d)", page, total)
	}
	page, _ = PageEvents(events, 3, 3)
	if len(page) != 1 || page[0].Turn != 0 {
		t.Errorf("Unexpected last page: %+v", page)
	}
	page, _ = PageEvents(events, 4, 3)
	if len(page) != 0 {
		t.Errorf("Expected empty page past the end, got %+v", page)
	}
}

func TestRankTeams(t *testing.T) {
	teams := []*Team{
		{ID: 0, Position: StagingPosition},
		{ID: 1, Position: 8},
		{ID: 2, Position: 8},
		{ID: 3, Position: 20},
	}
	ranked := RankTeams(teams)
	want := []int{3, 1, 2, 0}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Errorf("rank %d: expected team %d, got %d", i+1, id, ranked[i].ID)
		}
	}
	if teams[0].ID != 0 {
		t.Error("RankTeams must not reorder its input")
	}
}
