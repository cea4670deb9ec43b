package engine

// Descriptor is the presentation text for a tile effect
type Descriptor struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

var tileDescriptors = map[TileType]Descriptor{
	TileNormal:         {Icon: "·", Title: "Open Road", Text: "Nothing happens."},
	TileMine:           {Icon: "💥", Title: "Mine", Text: "The blast wrecks every part of the vehicle."},
	TileRepairOne:      {Icon: "🔧", Title: "Roadside Fix", Text: "The vehicle is patched back to full health."},
	TileFullRepair:     {Icon: "🛠", Title: "Field Workshop", Text: "The vehicle is fully restored."},
	TileFinish:         {Icon: "🏁", Title: "Finish", Text: "The race is over."},
	TileDamageAll:      {Icon: "⚠", Title: "Rough Terrain", Text: "Every part of the vehicle takes damage."},
	TileRepairAll:      {Icon: "⚙", Title: "Supply Depot", Text: "Every part is repaired."},
	TileCheckpoint:     {Icon: "🚩", Title: "Checkpoint", Text: "Every part is repaired."},
	TileRepairEngine:   {Icon: "🔋", Title: "Engine Shop", Text: "The engine is fully restored."},
	TileRepairTires:    {Icon: "🛞", Title: "Tire Shop", Text: "The tires are fully restored."},
	TileRepairSteering: {Icon: "🎯", Title: "Alignment Bay", Text: "The steering is fully restored."},
	TileDoubleDice:     {Icon: "🎲", Title: "Tailwind", Text: "The next roll is doubled."},
	TileImmune:         {Icon: "🛡", Title: "Shelter", Text: "No wear at the end of the next turn."},
	TileSkipTurn:       {Icon: "❄", Title: "Ambush", Text: "The next turn is lost."},
	TileSwap:           {Icon: "🔀", Title: "Crossroads", Text: "Trade places with the nearest team."},
	TileTrap:           {Icon: "🕳", Title: "Trap", Text: "Trade places with the nearest team."},
	TileTeleport:       {Icon: "✈", Title: "Airlift", Text: "Fly ahead to the next checkpoint."},
	TileDropEngine:     {Icon: "🔥", Title: "Engine Failure", Text: "The engine breaks down."},
	TileDropTire:       {Icon: "📌", Title: "Blowout", Text: "The tires burst."},
	TileDropSteering:   {Icon: "🌀", Title: "Steering Lock", Text: "The steering fails."},
}

// IsKnownTile reports whether t has a defined effect
func IsKnownTile(t TileType) bool {
	_, ok := tileDescriptors[t]
	return ok
}

// IsBonus reports whether t is a repair or buff tile. Landing on one with
// broken tires slides the vehicle one tile further.
func (t TileType) IsBonus() bool {
	switch t {
	case TileRepairOne, TileFullRepair, TileRepairAll,
		TileRepairEngine, TileRepairTires, TileRepairSteering,
		TileDoubleDice, TileImmune, TileTeleport:
		return true
	}
	return false
}

// DescribeTile returns the presentation text for a tile type
func DescribeTile(t TileType) Descriptor {
	if d, ok := tileDescriptors[t]; ok {
		return d
	}
	return tileDescriptors[TileNormal]
}

// TileOutcome reports the effect of the tile a team stopped on
type TileOutcome struct {
	Tile        TileType   `json:"tile"`
	Position    int        `json:"position"`
	Applied     bool       `json:"applied"`
	Slid        bool       `json:"slid,omitempty"`
	Destination int        `json:"destination"`
	SwappedWith *int       `json:"swapped_with,omitempty"`
	Repaired    []Part     `json:"repaired,omitempty"`
	Descriptor  Descriptor `json:"descriptor"`
}

// TileResolver applies tile effects to teams
type TileResolver struct {
	rules Rules
	path  *Path
}

// NewTileResolver creates a resolver bound to one path and rule set
func NewTileResolver(rules Rules, path *Path) *TileResolver {
	return &TileResolver{rules: rules, path: path}
}

// Resolve applies the effect of the tile under team. Effects that move the
// acting team along the path are not walked here; the destination is
// returned so the caller can step the team there.
func (r *TileResolver) Resolve(team *Team, teams []*Team) TileOutcome {
	tile := r.path.TileType(team.Position)
	out := TileOutcome{
		Tile:        tile,
		Position:    team.Position,
		Destination: team.Position,
		Descriptor:  DescribeTile(tile),
	}

	if tile.IsBonus() && team.IsBroken(PartTires) {
		out.Slid = true
		if next := team.Position + 1; next <= r.path.FinishIndex() {
			out.Destination = next
		}
		return out
	}

	out.Applied = true
	switch tile {
	case TileMine:
		team.DamageAll(r.rules.MineDamage, r.rules)
	case TileDamageAll:
		team.DamageAll(r.rules.TileDamage, r.rules)
	case TileRepairAll, TileCheckpoint:
		team.RepairAll(r.rules.TileRepair, r.rules)
		out.Repaired = append(out.Repaired, Parts...)
	case TileRepairOne, TileFullRepair, TileFinish:
		team.FullRepair(r.rules)
		out.Repaired = append(out.Repaired, Parts...)
	case TileRepairEngine:
		team.Repair(PartEngine, r.rules.MaxDurability.Engine, r.rules)
		out.Repaired = []Part{PartEngine}
	case TileRepairTires:
		team.Repair(PartTires, r.rules.MaxDurability.Tires, r.rules)
		out.Repaired = []Part{PartTires}
	case TileRepairSteering:
		team.Repair(PartSteering, r.rules.MaxDurability.Steering, r.rules)
		out.Repaired = []Part{PartSteering}
	case TileDropEngine:
		team.Durability.Engine = 0
	case TileDropTire:
		team.Durability.Tires = 0
	case TileDropSteering:
		team.Durability.Steering = 0
	case TileDoubleDice:
		team.Status.HasDoubleDiceNextRoll = true
	case TileImmune:
		team.Status.ImmuneNextTurn = true
	case TileSkipTurn:
		team.Status.IsFrozen = true
	case TileSwap, TileTrap:
		other := NearestTeam(team, teams)
		if other == nil {
			out.Applied = false
			break
		}
		team.Position, other.Position = other.Position, team.Position
		id := other.ID
		out.SwappedWith = &id
		out.Destination = team.Position
	case TileTeleport:
		if cp, ok := r.path.NextCheckpoint(team.Position); ok {
			out.Destination = cp
		} else {
			out.Applied = false
		}
	default:
		out.Applied = false
	}
	return out
}

// NearestTeam returns the on-path team closest to actor. On a distance tie
// the team ahead of actor wins; remaining ties go to the earliest team.
func NearestTeam(actor *Team, teams []*Team) *Team {
	var best *Team
	bestDist := 0
	for _, t := range teams {
		if t.ID == actor.ID || t.InStaging() {
			continue
		}
		d := abs(t.Position - actor.Position)
		switch {
		case best == nil, d < bestDist:
			best, bestDist = t, d
		case d == bestDist && t.Position > actor.Position && best.Position <= actor.Position:
			best = t
		}
	}
	return best
}
