package engine

import "sort"

// Standing is one row of the race leaderboard
type Standing struct {
	Rank         int        `json:"rank"`
	TeamID       int        `json:"team_id"`
	Name         string     `json:"name"`
	Color        string     `json:"color,omitempty"`
	Position     int        `json:"position"`
	InStaging    bool       `json:"in_staging"`
	Stage        int        `json:"stage"`
	StageName    string     `json:"stage_name"`
	Durability   Durability `json:"durability"`
	Condition    string     `json:"condition"`
	CorrectCount int        `json:"correct_count"`
	WrongCount   int        `json:"wrong_count"`
}

// RankTeams returns the teams ordered by position, furthest first.
// Equal positions keep their seating order.
func RankTeams(teams []*Team) []*Team {
	ranked := append([]*Team(nil), teams...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Position > ranked[j].Position
	})
	return ranked
}

// Standings returns the leaderboard for the current state
func (e *TurnEngine) Standings() []Standing {
	ranked := RankTeams(e.state.Teams)
	out := make([]Standing, 0, len(ranked))
	for i, t := range ranked {
		stage := e.path.Stage(t.Position)
		out = append(out, Standing{
			Rank:         i + 1,
			TeamID:       t.ID,
			Name:         t.Name,
			Color:        t.Color,
			Position:     t.Position,
			InStaging:    t.InStaging(),
			Stage:        stage,
			StageName:    e.path.StageName(stage),
			Durability:   t.Durability,
			Condition:    AssessCondition(t),
			CorrectCount: t.CorrectCount,
			WrongCount:   t.WrongCount,
		})
	}
	return out
}

// AssessCondition summarizes how badly a vehicle is damaged
func AssessCondition(t *Team) string {
	broken := 0
	for _, p := range Parts {
		if t.IsBroken(p) {
			broken++
		}
	}
	switch broken {
	case 0:
		return "RUNNING"
	case 1:
		return "DAMAGED"
	case 2:
		return "CRIPPLED"
	default:
		return "WRECKED"
	}
}

// PageEvents returns one page of events, newest first
func PageEvents(events []Event, page, limit int) ([]Event, int) {
	total := len(events)
	if limit <= 0 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}

	start := total - page*limit
	end := start + limit
	if end <= 0 {
		return []Event{}, total
	}
	if start < 0 {
		start = 0
	}

	out := make([]Event, 0, end-start)
	for i := end - 1; i >= start; i-- {
		out = append(out, events[i])
	}
	return out, total
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
